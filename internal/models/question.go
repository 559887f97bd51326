package models

// Subject — тематика вопроса.
type Subject string

// Известные тематики вопросов.
const (
	SubjectDatabase           Subject = "BDD"
	SubjectDistributedSystems Subject = "Systèmes distribués"
	SubjectStreaming          Subject = "Streaming de données"
	SubjectDataScience        Subject = "Data Science"
	SubjectDocker             Subject = "Docker"
	SubjectClassification     Subject = "Classification"
	SubjectMachineLearning    Subject = "Machine Learning"
	SubjectAutomation         Subject = "Automation"
)

// Subjects возвращает все известные тематики в фиксированном порядке.
func Subjects() []Subject {
	return []Subject{
		SubjectDatabase,
		SubjectDistributedSystems,
		SubjectStreaming,
		SubjectDataScience,
		SubjectDocker,
		SubjectClassification,
		SubjectMachineLearning,
		SubjectAutomation,
	}
}

// Valid сообщает, является ли тематика одной из известных.
func (s Subject) Valid() bool {
	for _, known := range Subjects() {
		if s == known {
			return true
		}
	}
	return false
}

// Use — тип теста, к которому относится вопрос.
type Use string

// Известные типы тестов.
const (
	UseAdmissionTest  Use = "Test de positionnement"
	UseValidationTest Use = "Test de validation"
	UseTotalBootcamp  Use = "Total Bootcamp"
)

// Uses возвращает все известные типы тестов.
func Uses() []Use {
	return []Use{UseAdmissionTest, UseValidationTest, UseTotalBootcamp}
}

// Valid сообщает, является ли тип теста одним из известных.
func (u Use) Valid() bool {
	for _, known := range Uses() {
		if u == known {
			return true
		}
	}
	return false
}

// QuestionCounts — допустимые размеры набора вопросов.
var QuestionCounts = []int{5, 10, 20}

// ValidQuestionCount сообщает, допустим ли запрошенный размер набора.
func ValidQuestionCount(n int) bool {
	for _, c := range QuestionCounts {
		if n == c {
			return true
		}
	}
	return false
}

// Question — вопрос с вариантами ответов и ключом.
type Question struct {
	ID        int     `json:"id"`
	Question  string  `json:"question"`
	Subject   Subject `json:"subject"`
	Use       Use     `json:"use"`
	Correct   string  `json:"correct"`
	ResponseA string  `json:"responseA"`
	ResponseB string  `json:"responseB"`
	ResponseC string  `json:"responseC,omitempty"`
	ResponseD string  `json:"responseD,omitempty"`
	Remark    string  `json:"remark,omitempty"`
}

// View возвращает представление вопроса без ключа ответа.
func (q Question) View() QuestionView {
	return QuestionView{
		Subject:   q.Subject,
		Question:  q.Question,
		ResponseA: q.ResponseA,
		ResponseB: q.ResponseB,
		ResponseC: q.ResponseC,
		ResponseD: q.ResponseD,
	}
}

// Answer возвращает ключ ответа на вопрос.
func (q Question) Answer() Answer {
	return Answer{
		ID:       q.ID,
		Question: q.Question,
		Correct:  q.Correct,
	}
}

// QuestionView — вопрос в составе QCM, без правильного ответа.
type QuestionView struct {
	Subject   Subject `json:"subject"`
	Question  string  `json:"question"`
	ResponseA string  `json:"responseA"`
	ResponseB string  `json:"responseB"`
	ResponseC string  `json:"responseC,omitempty"`
	ResponseD string  `json:"responseD,omitempty"`
}

// Answer — правильный ответ на вопрос.
type Answer struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Correct  string `json:"correct"`
}

// QuestionCreate — данные нового вопроса, добавляемого администратором.
type QuestionCreate struct {
	Use       Use     `json:"use" validate:"required,use"`
	Subject   Subject `json:"subject" validate:"required,subject"`
	Question  string  `json:"question" validate:"required,max=1000"`
	ResponseA string  `json:"responseA" validate:"required,max=500"`
	ResponseB string  `json:"responseB" validate:"required,max=500"`
	ResponseC string  `json:"responseC,omitempty" validate:"max=500"`
	ResponseD string  `json:"responseD,omitempty" validate:"max=500"`
	Correct   string  `json:"correct" validate:"required,answer_key"`
	Remark    string  `json:"remark,omitempty" validate:"max=1000"`
}

// ToQuestion преобразует запрос в доменную модель.
func (c QuestionCreate) ToQuestion() Question {
	return Question{
		Question:  c.Question,
		Subject:   c.Subject,
		Use:       c.Use,
		Correct:   c.Correct,
		ResponseA: c.ResponseA,
		ResponseB: c.ResponseB,
		ResponseC: c.ResponseC,
		ResponseD: c.ResponseD,
		Remark:    c.Remark,
	}
}
