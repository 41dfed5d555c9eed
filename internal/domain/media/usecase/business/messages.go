package business

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
)

// Status emojis shown in front of message headers
const (
	emojiProcessing  = "⏳"
	emojiDownloading = "📥"
	emojiUploading   = "📤"
	emojiError       = "❌"
	emojiWarning     = "⚠️"
)

func kindNoun(kind entities.ContentKind) string {
	if kind == entities.ContentPhoto {
		return "фото"
	}
	return "видео"
}

func kindEmoji(kind entities.ContentKind) string {
	if kind == entities.ContentPhoto {
		return "📸"
	}
	return "📹"
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func esc(s string) string {
	return html.EscapeString(s)
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "неизвестно"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func processingText(desc entities.PlatformDescriptor, kind entities.ContentKind, inFlight int) string {
	return fmt.Sprintf(`%s <b>Обработка запроса</b>

%s Платформа: %s
%s Тип: %s
👥 В очереди: %d
🔄 Получение информации...`,
		emojiProcessing, desc.Emoji, esc(desc.DisplayName), kindEmoji(kind), kindNoun(kind), inFlight)
}

func analysingText(desc entities.PlatformDescriptor, kind entities.ContentKind) string {
	return fmt.Sprintf(`%s <b>Получение информации</b>

%s %s
%s Анализ %s...`,
		emojiProcessing, desc.Emoji, esc(desc.DisplayName), kindEmoji(kind), kindNoun(kind))
}

func noInfoText(kind entities.ContentKind) string {
	return fmt.Sprintf(`%s <b>Ошибка получения информации</b>

Не удалось получить данные о %s.
Возможные причины:
• Приватный аккаунт
• Удаленный контент
• Проблемы с сетью`, emojiError, kindNoun(kind))
}

func downloadingText(desc entities.PlatformDescriptor, meta *entities.MediaMetadata) string {
	return fmt.Sprintf(`%s <b>Начинаю загрузку</b>

%s <b>%s...</b>
👤 Автор: %s
⏱️ Длительность: %s

📥 Скачивание...`,
		emojiDownloading, desc.Emoji, esc(truncate(meta.Title, 40)), esc(truncate(meta.Uploader, 30)),
		formatDuration(meta.DurationSeconds))
}

func uploadingText(kind entities.ContentKind) string {
	return fmt.Sprintf(`%s <b>Отправка %s</b>

📤 Загружаю в Telegram...`, emojiUploading, kindNoun(kind))
}

func tooLongText(kind entities.ContentKind, seconds, maxSeconds float64) string {
	noun := kindNoun(kind)
	return fmt.Sprintf(`%s <b>%s слишком длинное</b>

🕐 Длительность: %d мин.
⚠️ Максимум: %d мин.

Попробуйте %s покороче.`,
		emojiWarning, capitalize(noun), int(seconds)/60, int(maxSeconds)/60, noun)
}

func tooLargeText(kind entities.ContentKind, size, limit int64) string {
	return fmt.Sprintf(`%s <b>Файл слишком большой</b>

📦 Размер: %s
⚠️ Лимит: %s

Попробуйте %s поменьше.`,
		emojiWarning, formatSize(size), formatSize(limit), kindNoun(kind))
}

func photoUnsupportedText() string {
	return emojiError + ` <b>TikTok фото не поддерживается</b>

Не удалось получить изображение из этого поста.
Работает только с TikTok видео.

Попробуйте:
• TikTok видео вместо фото
• Другие платформы (YouTube, Instagram)`
}

func noFileText(kind entities.ContentKind) string {
	return fmt.Sprintf(`%s <b>Ошибка загрузки</b>

Не удалось скачать %s.
Попробуйте:
• Другую ссылку
• Повторить позже
• Проверить доступность контента`, emojiError, kindNoun(kind))
}

func failureText(reason entities.FailureReason) string {
	switch reason {
	case entities.ReasonForbidden:
		return `❌ Видео заблокировано для скачивания.
Это может быть связано с:
• Ограничениями правообладателя
• Географическими блокировками
• Временными ограничениями платформы

Попробуйте другое видео или повторите позже.`
	case entities.ReasonNotFound:
		return `❌ Видео не найдено.
Возможно, оно было удалено или ссылка неверна.`
	case entities.ReasonTimeout:
		return `❌ Превышено время ожидания.
Попробуйте позже или выберите видео поменьше.`
	case entities.ReasonBlocked:
		return `❌ Видео недоступно для скачивания.
TikTok блокирует автоматические запросы.
Попробуйте:
• Другое видео
• Повторить через несколько минут
• Проверить, что видео публичное`
	default:
		return genericErrorText()
	}
}

func genericErrorText() string {
	return `❌ Произошла ошибка при обработке видео.
Попробуйте позже или с другой ссылкой.`
}

func unsupportedLinkText() string {
	return emojiError + ` <b>Неподдерживаемая ссылка</b>

Отправьте ссылку на видео с одной из поддерживаемых платформ:

📺 YouTube
📱 Instagram
🎭 TikTok

Нажмите /help для подробной справки.`
}

func caption(desc entities.PlatformDescriptor, meta *entities.MediaMetadata) string {
	if meta == nil {
		return desc.Emoji
	}
	return fmt.Sprintf("%s %s\n👤 %s", desc.Emoji, esc(truncate(meta.Title, 50)), esc(meta.Uploader))
}

func startText() string {
	return `📋 <b>Инструкция по использованию:</b>

1️⃣ Скопируйте ссылку на видео или фото
2️⃣ Отправьте её мне в чат
3️⃣ Получите файл для скачивания

<b>Поддерживаемые платформы:</b>
YouTube (видео)
Instagram (видео, фото)
TikTok (видео, фото)`
}

func helpText(limit int64) string {
	return fmt.Sprintf(`%s <b>Помощь по использованию бота</b>

🎯 <b>Поддерживаемые форматы ссылок:</b>

📺 <b>YouTube:</b>
• <code>youtube.com/watch?v=</code> (только видео)
• <code>youtu.be/</code> (только видео)
• <code>youtube.com/shorts/</code> (только видео)

📱 <b>Instagram:</b>
• <code>instagram.com/p/</code> (видео и фото)
• <code>instagram.com/reel/</code> (видео)

🎭 <b>TikTok:</b>
• <code>tiktok.com/@username/video/</code> (видео)
• <code>tiktok.com/@username/photo/</code> (фото)
• <code>vm.tiktok.com/</code> (видео и фото)

⚠️ <b>Ограничения:</b>
• Максимальный размер: %s
• Приватные аккаунты не поддерживаются

🚀 <b>Команды:</b>
/start - главное меню
/help - эта справка
/stats - статистика`, emojiWarning, formatSize(limit))
}

func statsText(state entities.AdmissionState, platforms []entities.PlatformDescriptor) string {
	lines := make([]string, 0, len(platforms))
	for _, p := range platforms {
		lines = append(lines, p.Emoji+" "+esc(p.DisplayName))
	}

	return fmt.Sprintf(`%s <b>Статистика бота</b>

📊 <b>Текущее состояние:</b>
🔄 Активных загрузок: %d
✅ Всего обработано: %d
⚡ Лимит одновременных: %d

🎯 <b>Поддерживаемые платформы:</b>
%s`,
		emojiProcessing, state.InFlight, state.TotalCompleted, state.MaxConcurrent, strings.Join(lines, "\n"))
}
