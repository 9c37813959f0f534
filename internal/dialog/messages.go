package dialog

import (
	"fmt"
	"html"
	"strings"
	"time"

	"InterestBot/internal/catalog"
	"InterestBot/internal/domain"
)

// Reply keyboard labels.
const (
	LabelSearch   = "🔍 Найти группу по интересам"
	LabelMyGroups = "📋 Мои группы"
	LabelProfile  = "👤 Профиль"
	LabelPopular  = "🎯 Популярные темы"
	LabelHelp     = "❓ Помощь"
	LabelSupport  = "🆘 Поддержка"

	LabelAccept  = "✅ Присоединиться"
	LabelDecline = "❌ Отказаться"
	LabelOther   = "🔄 Другие темы"
	LabelBack    = "🔙 Назад"
	LabelMenu    = "🏠 В меню"
	LabelCancel  = "❌ Отмена"
)

const (
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
)

func mainMenuKeyboard() [][]string {
	return [][]string{
		{LabelSearch},
		{LabelMyGroups, LabelProfile},
		{LabelPopular, LabelHelp},
		{LabelSupport},
	}
}

func joinKeyboard() [][]string {
	return [][]string{
		{LabelAccept, LabelDecline},
		{LabelOther, LabelMenu},
	}
}

func supportKeyboard() [][]string {
	return [][]string{{LabelMenu, LabelCancel}}
}

// topicsKeyboard lays topic labels out two per row followed by the exits.
func topicsKeyboard(topics []domain.Topic) [][]string {
	rows := make([][]string, 0, len(topics)/2+2)
	for i := 0; i < len(topics); i += 2 {
		row := []string{topics[i].Label()}
		if i+1 < len(topics) {
			row = append(row, topics[i+1].Label())
		}
		rows = append(rows, row)
	}
	return append(rows, []string{LabelBack, LabelDecline})
}

func menuReply(text string) domain.Reply {
	return domain.Reply{Text: text, Keyboard: mainMenuKeyboard()}
}

func esc(s string) string { return html.EscapeString(s) }

func reasonText(reason domain.Reason) string {
	switch reason {
	case domain.ReasonExact:
		return "идеально подходит под ваш запрос"
	case domain.ReasonKeywordOverlap:
		return "совпадает с вашими интересами"
	case domain.ReasonVectorSimilarity:
		return "похожа по смыслу на ваш запрос"
	case domain.ReasonFallbackTerm:
		return "содержит ключевые слова из вашего запроса"
	default:
		return "может быть интересна вам"
	}
}

func welcomeText(user domain.User) string {
	name := user.DisplayName()
	if name == "" {
		name = "друг"
	}
	return fmt.Sprintf(`🤖 <b>Привет, %s!</b>

🌟 <b>Я ваш личный гид по миру единомышленников.</b>

Здесь люди с общими интересами создают совместные проекты, обсуждают идеи и делятся опытом.

🎯 <b>Что вас интересует сегодня?</b> Выберите действие из меню ниже 👇`, esc(name))
}

func goodbyeText(user domain.User) string {
	name := user.DisplayName()
	if name == "" {
		name = "друг"
	}
	return fmt.Sprintf("👋 <b>До встречи, %s!</b>\n\nВозвращайтесь, когда захотите найти новых единомышленников.", esc(name))
}

const (
	askTopicText = `🎯 <b>Что вас интересует?</b>

Напишите тему, например:
• путешествия по Азии
• программирование на Python
• йога и медитация

✏️ Опишите свой интерес одним сообщением:`

	backToMenuText     = "🏠 <b>Вы вернулись в главное меню</b>\n\nВыберите действие:"
	unknownCommandText = "❓ <b>Неизвестная команда.</b> Используйте меню для выбора действия."
	suggestSearchText  = "🔍 <b>Хотите найти группу по вашему запросу?</b>\n\nНажмите «" + LabelSearch + "» в меню."
	useButtonsText     = "❓ <b>Неизвестная команда.</b> Пожалуйста, используйте кнопки для выбора действия."
	declinedText       = "👋 <b>Хорошо, вы отказались от присоединения.</b>\n\nВы можете найти другую группу или вернуться позже.\n\n🎯 <b>Что дальше?</b>"
	noTopicText        = "❌ <b>Ошибка: тема не выбрана.</b> Приносим извинения. Начните поиск заново из главного меню."
	storeFailedText    = "❌ <b>Не удалось сохранить участие.</b> Попробуйте позже."

	helpText = `📖 <b>Справка по боту</b>

🎯 <b>Как это работает:</b>
1. Вы пишете тему, которая вас интересует
2. Бот ищет подходящую группу по названию, ключевым словам и смыслу запроса
3. Если группа найдена, бот предлагает присоединиться
4. Если нет, бот показывает популярные темы

💡 <b>Важно:</b>
• Ссылки-приглашения одноразовые
• Вы всегда можете отказаться от присоединения

🆘 Напишите /support, чтобы связаться с администратором.`

	supportPromptText = `🆘 <b>Поддержка</b>

Напишите ваш вопрос или проблему, и я передам сообщение администратору.

✏️ <b>Введите ваше сообщение ниже:</b>`

	supportCancelledText = "❌ <b>Отправка в поддержку отменена.</b>\n\nВыберите действие:"
	supportSentText      = "✅ <b>Ваше сообщение отправлено администратору!</b>\n\nМы ответим вам в ближайшее время."
	supportSavedText     = "✅ <b>Ваше сообщение сохранено!</b>\n\nАдминистратор получит его, как только будет онлайн."
	supportFailedText    = "⚠️ <b>Не удалось отправить сообщение.</b>\n\nПопробуйте позже."

	profileMissingText = "👤 <b>Профиль не найден</b>\n\nПожалуйста, начните с команды /start"
	profileFailedText  = "⚠️ <b>Не удалось загрузить профиль.</b> Попробуйте позже."
	groupsFailedText   = "⚠️ <b>Не удалось загрузить список групп.</b> Попробуйте позже."
	noGroupsText       = "📋 <b>У вас пока нет групп</b>\n\nНажмите «" + LabelSearch + "», чтобы найти первую."
)

func popularText(topics []domain.Topic) string {
	var b strings.Builder
	b.WriteString("🎯 <b>Популярные темы</b>\n\nВыберите тему, которая вам ближе:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "\n%s <b>%s</b>: %s", t.Glyph, esc(t.Name), esc(t.Description))
	}
	return b.String()
}

func proposalText(result domain.MatchResult) string {
	t := result.Topic
	return fmt.Sprintf(`🎯 <b>Я нашёл подходящую группу!</b>

<b>Тема:</b> %s
<b>Почему эта группа:</b> %s

<b>Описание:</b> %s

Хотите присоединиться?`, esc(t.Label()), reasonText(result.Reason), esc(t.Description))
}

func noMatchText(query string) string {
	return fmt.Sprintf(`🤔 <b>Я не нашёл группу по запросу «%s».</b>

Я запомнил ваш интерес: если таких запросов станет больше, появится новая группа.

🎯 Пока выберите одну из популярных тем:`, esc(query))
}

func chosenText(topic domain.Topic) string {
	keywords := topic.Keywords
	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	return fmt.Sprintf(`🎯 <b>Отличный выбор!</b>

<b>Тема:</b> %s
<b>Описание:</b> %s

👥 <b>Участники уже обсуждают:</b> %s

Хотите присоединиться?`, esc(topic.Label()), esc(topic.Description), esc(strings.Join(keywords, ", ")))
}

func unavailableText(label string) string {
	return fmt.Sprintf("⚠️ <b>Группа «%s» недоступна.</b> Выберите тему из списка:", esc(label))
}

func joinedText(topic domain.Topic, link string, already bool) string {
	var b strings.Builder
	if already {
		fmt.Fprintf(&b, "👌 <b>Вы уже состоите в группе «%s».</b>\n\n", esc(topic.Name))
	} else {
		fmt.Fprintf(&b, "🎉 <b>Вы присоединились к группе «%s»!</b>\n\n", esc(topic.Name))
	}
	fmt.Fprintf(&b, "🔗 <b>Ваша персональная ссылка:</b> %s\n\n", esc(link))
	b.WriteString("Ссылка одноразовая. Представьтесь участникам и начните обсуждение!")
	return b.String()
}

func inviteFailedText(topic domain.Topic, err error) string {
	return fmt.Sprintf(`⚠️ <b>Не удалось получить ссылку для группы «%s»</b>

❌ <b>Причина:</b> %s

🔄 Попробуйте позже или выберите другую тему.`, esc(topic.Name), esc(err.Error()))
}

func configurationErrorText(name string) string {
	return fmt.Sprintf("❌ <b>Группа «%s» сейчас недоступна.</b> Приносим извинения, мы уже разбираемся. Сообщите об ошибке через /support.", esc(name))
}

func groupsText(names []string, cat *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("📋 <b>Ваши группы</b>\n")
	for _, name := range names {
		label := name
		if t, ok := cat.Lookup(name); ok {
			label = t.Label()
		}
		fmt.Fprintf(&b, "\n• %s", esc(label))
	}
	fmt.Fprintf(&b, "\n\nВсего групп: %d", len(names))
	return b.String()
}

func achievement(title string, done bool) string {
	if done {
		return "• " + title + " ✅"
	}
	return "• " + title + " ⏳"
}

func profileText(p domain.Profile) string {
	username := "не указан"
	if p.User.Username != "" {
		username = "@" + p.User.Username
	}
	language := p.User.Language
	if language == "" {
		language = "не указан"
	}
	return fmt.Sprintf(`👤 <b>Ваш профиль</b>

📝 <b>Основная информация:</b>
• ID: <code>%d</code>
• Имя: %s
• Username: %s
• Язык: %s
• Дата регистрации: %s
• Последняя активность: %s

📊 <b>Статистика:</b>
• Активных групп: %d
• Найдено интересов: %d

🏆 <b>Достижения:</b>
%s
%s
%s
%s`,
		p.User.ID, esc(p.User.FirstName), esc(username), esc(language),
		p.RegisteredAt.Format(dateLayout), p.LastActive.Format(dateTimeLayout),
		p.GroupCount, p.InterestCount,
		achievement("Знакомство с ботом", true),
		achievement("Первая группа", p.GroupCount >= 1),
		achievement("Активный участник", p.GroupCount >= 3),
		achievement("Лидер сообщества", p.GroupCount >= 5),
	)
}

func adminSupportText(user domain.User, text string, id int64, saved bool, at time.Time) string {
	username := "не указан"
	if user.Username != "" {
		username = "@" + user.Username
	}
	ticket := "(не сохранено)"
	if saved && id > 0 {
		ticket = fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf(`🆘 <b>НОВОЕ ОБРАЩЕНИЕ В ПОДДЕРЖКУ</b> %s

👤 <b>Пользователь:</b>
ID: <code>%d</code>
Имя: %s
Username: %s

📝 <b>Сообщение:</b>
%s

⏰ <b>Время:</b> %s`, ticket, user.ID, esc(user.FirstName), esc(username), esc(text), at.Format("2006-01-02 15:04:05"))
}
