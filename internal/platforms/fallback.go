package platforms

import "github.com/ethanbaker/sourcing/pkg/sourcing"

// Fallback datasets are returned, filtered, whenever a live call is not possible

func sample(id, first, last, email, position, company, location string, years int, skills []string, salaryMin, salaryMax int, summary, linkedIn, github string) sourcing.NormalizedCandidate {
	candidate := sourcing.NormalizedCandidate{
		ExternalID:      id,
		FirstName:       first,
		LastName:        last,
		Email:           email,
		Location:        location,
		CurrentPosition: position,
		CurrentCompany:  company,
		Skills:          skills,
		Summary:         summary,
		LinkedInURL:     linkedIn,
		GithubURL:       github,
		RawData:         map[string]any{"source": "fallback"},
	}
	if years >= 0 {
		candidate.ExperienceYears = intPtr(years)
	}
	if salaryMin > 0 {
		candidate.SalaryMin = intPtr(salaryMin)
	}
	if salaryMax > 0 {
		candidate.SalaryMax = intPtr(salaryMax)
	}
	return candidate
}

func linkedInFallback() []sourcing.NormalizedCandidate {
	people := []sourcing.NormalizedCandidate{
		sample("linkedin_ivan-petrov", "Иван", "Петров", "ivan.petrov@example.com",
			"Senior Python Developer", "TechCorp", "Москва", 5,
			[]string{"Python", "Django", "FastAPI", "PostgreSQL", "Docker", "AWS", "Git"}, 150000, 250000,
			"Опытный Python разработчик с 5+ летним стажем. Специализируется на веб-разработке, Django, FastAPI, PostgreSQL.",
			"https://linkedin.com/in/ivan-petrov", "https://github.com/ivan-petrov"),
		sample("linkedin_anna-smirnova", "Анна", "Смирнова", "anna.smirnova@example.com",
			"Frontend Developer", "WebStudio", "Санкт-Петербург", 3,
			[]string{"JavaScript", "TypeScript", "React", "Vue.js", "HTML", "CSS", "Webpack", "Node.js"}, 120000, 180000,
			"Frontend разработчик с опытом работы с React, Vue.js, TypeScript. Создаю современные пользовательские интерфейсы.",
			"https://linkedin.com/in/anna-smirnova", "https://github.com/anna-smirnova"),
		sample("linkedin_dmitry-kozlov", "Дмитрий", "Козлов", "dmitry.kozlov@example.com",
			"Full-stack Developer", "FinTech Solutions", "Новосибирск", 4,
			[]string{"Java", "Spring Boot", "React", "PostgreSQL", "Redis", "Kubernetes", "Docker"}, 140000, 220000,
			"Full-stack разработчик с опытом в Java, Spring Boot, React. Работал с микросервисной архитектурой.",
			"https://linkedin.com/in/dmitry-kozlov", "https://github.com/dmitry-kozlov"),
		sample("linkedin_elena-volkova", "Елена", "Волкова", "elena.volkova@example.com",
			"Senior DevOps Engineer", "CloudTech", "Екатеринбург", 6,
			[]string{"Docker", "Kubernetes", "AWS", "Azure", "Terraform", "Ansible", "Jenkins", "Python"}, 160000, 280000,
			"DevOps инженер с опытом автоматизации развертывания и мониторинга. Работала с AWS, Azure, Kubernetes.",
			"https://linkedin.com/in/elena-volkova", "https://github.com/elena-volkova"),
		sample("linkedin_mikhail-ivanov", "Михаил", "Иванов", "mikhail.ivanov@example.com",
			"Mobile Developer", "MobileFirst", "Казань", 3,
			[]string{"React Native", "Flutter", "Swift", "Kotlin", "JavaScript", "TypeScript", "Firebase"}, 130000, 190000,
			"Мобильный разработчик с опытом создания iOS и Android приложений. Специализируется на React Native и Flutter.",
			"https://linkedin.com/in/mikhail-ivanov", "https://github.com/mikhail-ivanov"),
		sample("linkedin_olga-sokolova", "Ольга", "Соколова", "olga.sokolova@example.com",
			"Data Scientist", "DataLab", "Ростов-на-Дону", 4,
			[]string{"Python", "R", "TensorFlow", "PyTorch", "Pandas", "NumPy", "Scikit-learn", "SQL"}, 140000, 200000,
			"Data Scientist с опытом машинного обучения и анализа данных. Работала с Python, R, TensorFlow, PyTorch.",
			"https://linkedin.com/in/olga-sokolova", "https://github.com/olga-sokolova"),
		sample("linkedin_sergey-morozov", "Сергей", "Морозов", "sergey.morozov@example.com",
			"Backend Developer", "ScaleTech", "Красноярск", 5,
			[]string{"Node.js", "Go", "PostgreSQL", "MongoDB", "Redis", "RabbitMQ", "Docker", "Kubernetes"}, 150000, 240000,
			"Backend разработчик с опытом работы с Node.js, Go, микросервисами. Специализируется на высоконагруженных системах.",
			"https://linkedin.com/in/sergey-morozov", "https://github.com/sergey-morozov"),
		sample("linkedin_tatyana-kuznetsova", "Татьяна", "Кузнецова", "tatyana.kuznetsova@example.com",
			"QA Engineer", "QualityAssurance", "Воронеж", 3,
			[]string{"Selenium", "Cypress", "Python", "Java", "Postman", "JIRA", "TestRail", "Docker"}, 90000, 140000,
			"QA Engineer с опытом автоматизации тестирования. Работала с Selenium, Cypress, Python для тестирования.",
			"https://linkedin.com/in/tatyana-kuznetsova", "https://github.com/tatyana-kuznetsova"),
	}

	for i := range people {
		people[i].ProfileURL = people[i].LinkedInURL
	}
	return people
}

func hhFallback() []sourcing.NormalizedCandidate {
	people := []sourcing.NormalizedCandidate{
		sample("hh_456", "Анна", "Сидорова", "anna.sidorova@example.com",
			"Frontend Developer", "Web Studio", "Санкт-Петербург", 3,
			[]string{"React", "TypeScript", "Node.js"}, 110000, 160000,
			"Frontend разработчик с опытом работы с React", "", ""),
		sample("hh_457", "Павел", "Орлов", "pavel.orlov@example.com",
			"Python Developer", "Рога и Копыта", "Москва", 2,
			[]string{"Python", "Flask", "PostgreSQL", "Docker"}, 100000, 150000,
			"Python разработчик, бэкенд на Flask и PostgreSQL", "", ""),
		sample("hh_458", "Ирина", "Лебедева", "irina.lebedeva@example.com",
			"Project Manager", "Digital Agency", "Москва", 7,
			[]string{"Agile", "Scrum", "JIRA"}, 180000, 250000,
			"Руководитель проектов в веб-разработке", "", ""),
		sample("hh_459", "Артём", "Никитин", "",
			"Java Developer", "Банк Восток", "Нижний Новгород", 4,
			[]string{"Java", "Spring", "Kafka", "Oracle"}, 160000, 230000,
			"Java разработчик, платёжные системы", "", ""),
	}

	for i := range people {
		people[i].ResumeURL = "https://hh.ru/resume/" + people[i].ExternalID[len("hh_"):]
		people[i].ProfileURL = people[i].ResumeURL
	}
	return people
}

func superJobFallback() []sourcing.NormalizedCandidate {
	return []sourcing.NormalizedCandidate{
		sample("superjob_1001", "Виктор", "Зайцев", "viktor.zaitsev@example.com",
			"PHP Developer", "Интернет Решения", "Москва", 4,
			[]string{"PHP", "Laravel", "MySQL", "Redis"}, 120000, 170000,
			"Backend разработчик на PHP и Laravel", "", ""),
		sample("superjob_1002", "Наталья", "Белова", "natalia.belova@example.com",
			"1C Developer", "Учёт Плюс", "Самара", 6,
			[]string{"1C", "SQL"}, 90000, 140000,
			"Программист 1С, внедрение и сопровождение", "", ""),
		sample("superjob_1003", "Константин", "Фролов", "",
			"Python Developer", "DataSoft", "Санкт-Петербург", -1,
			[]string{"Python", "Pandas", "Airflow"}, 0, 0,
			"Разработчик ETL процессов на Python", "", ""),
	}
}

func lalafoFallback() []sourcing.NormalizedCandidate {
	people := []sourcing.NormalizedCandidate{
		sample("lalafo_101", "Айбек", "Абдылдаев", "",
			"Python Developer", "Bishkek Tech", "Бишкек", 2,
			[]string{"Python", "Django", "PostgreSQL"}, 80000, 120000,
			"Python разработчик, 2 года опыта в веб-разработке", "", ""),
		sample("lalafo_102", "Нурлан", "Токтогулов", "",
			"Frontend Developer", "Не указано", "Бишкек", 3,
			[]string{"JavaScript", "React", "CSS"}, 60000, 90000,
			"Frontend разработчик, 3 года опыта", "", ""),
		sample("lalafo_103", "Айгуль", "Сатыбалдиева", "",
			"Аналитик данных", "Не указано", "Бишкек", -1,
			[]string{"Python", "SQL", "Excel"}, 50000, 70000,
			"Ищу работу аналитиком данных", "", ""),
		sample("lalafo_104", "Бекзат", "Осмонов", "",
			"Senior Python Developer", "Kyrgyz Soft", "Бишкек", 6,
			[]string{"Python", "FastAPI", "Docker", "Kubernetes"}, 150000, 200000,
			"Senior Python разработчик, стаж 6 лет", "", ""),
		sample("lalafo_105", "Эркин", "Жумабаев", "",
			"Python Developer", "Не указано", "Ош", 2,
			[]string{"Python", "Flask"}, 40000, 60000,
			"Python разработчик из Оша", "", ""),
		sample("lalafo_106", "Мария", "Ким", "",
			"UI/UX Designer", "Не указано", "Бишкек", 1,
			[]string{"Figma", "Photoshop"}, 40000, 70000,
			"Дизайнер интерфейсов", "", ""),
	}

	phones := map[string]string{
		"lalafo_101": "+996555123456",
		"lalafo_102": "+996700654321",
	}
	for i := range people {
		people[i].Phone = phones[people[i].ExternalID]
	}
	return people
}
