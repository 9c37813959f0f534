package catalog

import "InterestBot/internal/domain"

// DefaultTopics is the built-in topic catalog in display order.
var DefaultTopics = []domain.Topic{
	{
		Name:        "Образование и Саморазвитие",
		Keywords:    []string{"учеба", "саморазвитие", "книги", "курсы", "образование", "знание", "развитие", "психология", "мышление", "обучение", "университет", "школа", "знания", "самосовершенствование", "мотивация", "цели", "успех"},
		Description: "Группа для тех, кто стремится к постоянному развитию, изучению нового и личностному росту.",
		Glyph:       "📚",
		GroupID:     "-1003433439121",
	},
	{
		Name:        "Наука и литература",
		Keywords:    []string{"наука", "литература", "книги", "авторы", "научные", "исследования", "научная", "фантастика", "классика", "поэзия", "проза", "литературные", "критика", "научпоп", "физика", "химия", "биология", "история"},
		Description: "Обсуждение научных открытий, литературных произведений и авторов, научной фантастики и классики.",
		Glyph:       "🔬",
		GroupID:     "-1002820402117",
	},
	{
		Name:        "Программирование",
		Keywords:    []string{"программирование", "код", "разработка", "python", "javascript", "веб", "мобильные", "приложения", "алгоритмы", "бэкенд", "фронтенд", "дата", "аналитика", "машинное", "обучение", "искусственный", "интеллект", "нейронные", "сети"},
		Description: "Группа для разработчиков, где обсуждаются языки программирования, фреймворки и технологии.",
		Glyph:       "💻",
		GroupID:     "-1003477061325",
	},
	{
		Name:        "Экономика и Бизнес",
		Keywords:    []string{"экономика", "бизнес", "финансы", "инвестиции", "стартап", "предпринимательство", "рынок", "деньги", "заработок", "доход", "прибыль", "капитал", "бизнесмен", "предприниматель", "трейдинг", "акции", "валюта", "криптовалюта", "форекс", "недвижимость"},
		Description: "Обсуждение экономических новостей, бизнес-идей, инвестиций и финансовых стратегий.",
		Glyph:       "💰",
		GroupID:     "-1003382139382",
	},
	{
		Name:        "Здоровье и медицина",
		Keywords:    []string{"здоровье", "медицина", "фитнес", "питание", "спорт", "йога", "лечение", "профилактика", "психическое", "диета", "витамины", "лекарства", "болезни", "врачи", "психология", "стресс", "сон", "релаксация", "оздоровление"},
		Description: "Группа о здоровье, фитнесе, правильном питании и медицинских аспектах.",
		Glyph:       "💪",
		GroupID:     "-1003305866632",
	},
	{
		Name:        "Искусство и музыка",
		Keywords:    []string{"искусство", "музыка", "творчество", "живопись", "рисование", "композиторы", "исполнители", "творческие", "художники", "графика", "скульптура", "архитектура", "классическая", "рок", "джаз", "поп", "эстрада", "инструменты", "гитара", "фортепиано"},
		Description: "Обсуждение искусства, музыки, творческих проектов и культурных событий.",
		Glyph:       "🎨",
		GroupID:     "-1003378596165",
	},
	{
		Name:        "Кулинария и рецепты",
		Keywords:    []string{"кулинария", "рецепты", "готовка", "еда", "блюда", "ингредиенты", "вкусно", "домашняя", "кухни", "выпечка", "кондитерское", "десерты", "салаты", "супы", "вторые", "напитки", "кофе", "чай", "вино"},
		Description: "Группа для любителей готовить и обмениваться рецептами разных кухонь мира.",
		Glyph:       "🍳",
		GroupID:     "-1003210673239",
	},
	{
		Name:        "Путешествие и туризм",
		Keywords:    []string{"путешествие", "туризм", "страны", "город", "отдых", "отпуск", "достопримечательности", "экскурсии", "походы", "автомобильные", "туристические", "маршруты", "гостиницы", "отели", "авиабилеты", "визы", "пляж", "море", "горы", "природа", "экзотика", "бюджетные", "дорогие", "туристы"},
		Description: "Обсуждение путешествий, туристических маршрутов, стран и мест для отдыха.",
		Glyph:       "✈️",
		GroupID:     "-1003340734939",
	},
	{
		Name:        "Спорт",
		Keywords:    []string{"спорт", "фитнес", "тренировка", "чемпионат", "матчи", "здоровье", "физическая", "активность", "командный", "футбол", "баскетбол", "волейбол", "теннис", "плавание", "бег", "велосипед", "единоборства", "бокс", "бои", "тренажерный", "зал", "диета", "питание"},
		Description: "Группа о спорте, физической активности и здоровом образе жизни.",
		Glyph:       "⚽",
		GroupID:     "-1003300649893",
	},
	{
		Name:        "Иное",
		Keywords:    []string{"разное", "другое", "всякое", "общее", "разные", "темы", "обсуждения", "общение", "флуд", "разговоры", "мемы", "юмор", "анекдоты", "интересное", "важное", "актуальное", "новости"},
		Description: "Группа для общения на разные темы, которые не вошли в другие категории.",
		Glyph:       "🔄",
		GroupID:     "-1003307595772",
	},
}

// DefaultFallbacks is the last-resort term table, scanned in order.
var DefaultFallbacks = []domain.FallbackTerm{
	{Term: "путешествие", Topic: "Путешествие и туризм"},
	{Term: "экономика", Topic: "Экономика и Бизнес"},
	{Term: "здоровье", Topic: "Здоровье и медицина"},
	{Term: "программирование", Topic: "Программирование"},
	{Term: "искусство", Topic: "Искусство и музыка"},
	{Term: "кулинария", Topic: "Кулинария и рецепты"},
	{Term: "спорт", Topic: "Спорт"},
	{Term: "наука", Topic: "Наука и литература"},
	{Term: "образование", Topic: "Образование и Саморазвитие"},
	{Term: "финансы", Topic: "Экономика и Бизнес"},
	{Term: "деньги", Topic: "Экономика и Бизнес"},
	{Term: "бизнес", Topic: "Экономика и Бизнес"},
	{Term: "книги", Topic: "Наука и литература"},
	{Term: "фитнес", Topic: "Спорт"},
	{Term: "музыка", Topic: "Искусство и музыка"},
	{Term: "живопись", Topic: "Искусство и музыка"},
	{Term: "готовка", Topic: "Кулинария и рецепты"},
	{Term: "туризм", Topic: "Путешествие и туризм"},
	{Term: "развитие", Topic: "Образование и Саморазвитие"},
	{Term: "психология", Topic: "Образование и Саморазвитие"},
}
