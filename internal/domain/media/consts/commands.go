// Package consts contains constants for the media domain
package consts

// Command represents a bot command
type Command struct {
	Name        string
	Description string
}

// Slash returns the command as typed by the user
func (c Command) Slash() string {
	return "/" + c.Name
}

// Bot commands
var (
	CommandStart = Command{Name: "start", Description: "Начать работу с ботом"}
	CommandHelp  = Command{Name: "help", Description: "Справка и ограничения"}
	CommandStats = Command{Name: "stats", Description: "Статистика загрузок"}
)

// AllCommands contains all available bot commands for menu registration
var AllCommands = []Command{
	CommandStart,
	CommandHelp,
	CommandStats,
}
