package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bilimbagdar/internal/models"
)

// The coaching persona and all canned texts are in Kazakh, the language the
// application serves.
const personaInstruction = "Сен мектеп оқушысына үй тапсырмасын орындауға көмектесетін тәжірибелі ұстазсың. " +
	"Қадам-қадаммен бағыттап отыр, бірақ есептің толық шешімін ешқашан айтпа. " +
	"Күшті кеңес бермес бұрын, алдымен оқушының өз әрекетін сұра. " +
	"Жауапты тек қазақ тілінде бер."

// Struggling keywords checked against user messages (lowercased substring
// match). Russian variants included since students often mix languages.
var strugglingKeywords = []string{
	"түсінбедім", "түсінбей", "қиын", "шатас", "қате",
	"не понял", "не понимаю", "сложно", "запутал",
}

// topicKeywords maps topic keyword families to canned review sub-topics
var topicKeywords = []struct {
	keywords  []string
	subTopics []string
}{
	{
		keywords:  []string{"теңдеу", "equation"},
		subTopics: []string{"Теңдеуді түрлендіру", "Орнына қою арқылы тексеру"},
	},
	{
		keywords:  []string{"пайыз", "процент", "percent"},
		subTopics: []string{"Пайызды бөлшекке айналдыру", "Пайыздық өзгерісті табу"},
	},
	{
		keywords:  []string{"үшбұрыш", "геометрия", "triangle", "geometry"},
		subTopics: []string{"Үшбұрыш қасиеттері", "Аудан мен периметр формулалары"},
	},
}

const (
	flagManyQuestions = "Көп сұрақ қойылды (8+ хабарлама)"
	flagStruggling    = "Қиналу белгілері байқалды"
)

var genericNextSteps = []string{
	"Шешімнің әр қадамын дауыстап түсіндіріп көр",
	"Осыған ұқсас тағы бір есеп шығарып жаттық",
}

// genericSteps is the fallback coaching plan when the teacher authored no
// step hints
var genericSteps = []string{
	"Есептің шартында не берілгенін жазып ал",
	"Не табу керегін анықта",
	"Белгілі әдіс-формулаларды еске түсір",
	"Бірінші қадамды жасап, нәтижесін тексер",
}

// ReflectionService turns a coaching session into structured feedback.
// Two strategies: model-backed narrative when the language-model
// collaborator answers, deterministic rule-based synthesis otherwise. The
// structured fields (correctness, review topics, next steps, flags) are
// always derived deterministically from the session data; the narrative
// text comes from exactly one strategy per call, never blended.
type ReflectionService struct {
	llm *LLMService
}

// NewReflectionService creates a new reflection service
func NewReflectionService(llm *LLMService) *ReflectionService {
	return &ReflectionService{llm: llm}
}

// Reflect produces feedback for a finished submission. It never fails: any
// problem with the external collaborator falls back to the rule-based
// strategy for this call.
func (s *ReflectionService) Reflect(ctx context.Context, hw *models.Homework, finalAnswer string, transcript []models.ChatMessage) *models.Reflection {
	r := s.ruleReflection(hw, finalAnswer, transcript)

	if s.llm.Enabled() {
		prompt := s.reflectionPrompt(hw, finalAnswer)
		text, err := s.llm.Complete(ctx, prompt, transcript)
		if err != nil {
			slog.Warn("Model reflection failed, using rule-based fallback", "hw_id", hw.ID, "error", err)
			return r
		}
		r.Text = text
	}

	return r
}

// CoachReply produces one live coaching reply during the chat. The
// rule-based path runs with zero external dependency.
func (s *ReflectionService) CoachReply(ctx context.Context, hw *models.Homework, transcript []models.ChatMessage) string {
	if s.llm.Enabled() {
		text, err := s.llm.Complete(ctx, s.coachPrompt(hw), transcript)
		if err == nil {
			return text
		}
		slog.Warn("Model coaching reply failed, using rule-based fallback", "hw_id", hw.ID, "error", err)
	}
	return ruleCoachReply(hw, latestUserMessage(transcript))
}

// ruleReflection is Strategy B: deterministic synthesis from templates
func (s *ReflectionService) ruleReflection(hw *models.Homework, finalAnswer string, transcript []models.ChatMessage) *models.Reflection {
	r := &models.Reflection{
		Correct:     GradeAnswer(hw.ExpectedAnswer, finalAnswer),
		NeedsReview: reviewTopics(hw.Topic),
		NextSteps:   append([]string(nil), genericNextSteps...),
		Flags:       transcriptFlags(transcript),
	}

	var lines []string
	lines = append(lines, "Жұмысың үшін рақмет! Төменде қысқаша қорытынды.")
	switch {
	case hw.ExpectedAnswer == "":
		lines = append(lines, "Мұғалім күтілетін жауапты көрсетпеген, сондықтан жауаптың дұрыстығы автоматты тексерілмеді.")
	case r.Correct == models.CorrectnessCorrect:
		lines = append(lines, "Соңғы жауабың дұрыс, жарайсың!")
	default:
		lines = append(lines, "Соңғы жауабың күтілген жауаппен сәйкес келмеді — шешіміңді қайта тексеріп көр.")
	}
	if len(r.Flags) > 0 {
		lines = append(lines, "Назар аудар: "+strings.Join(r.Flags, "; ")+".")
	}
	r.Text = strings.Join(lines, " ")

	return r
}

// GradeAnswer compares the student's final answer against the expected one.
// Exact, trimmed, case-sensitive; unknown whenever no answer is expected.
func GradeAnswer(expectedAnswer, finalAnswer string) models.Correctness {
	if expectedAnswer == "" {
		return models.CorrectnessUnknown
	}
	if strings.TrimSpace(finalAnswer) == strings.TrimSpace(expectedAnswer) {
		return models.CorrectnessCorrect
	}
	return models.CorrectnessIncorrect
}

// reviewTopics seeds the review list with the topic itself plus
// keyword-triggered canned sub-topics, deduplicated in original order
func reviewTopics(topic string) []string {
	topics := []string{topic}
	lower := strings.ToLower(topic)
	for _, family := range topicKeywords {
		for _, kw := range family.keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, family.subTopics...)
				break
			}
		}
	}
	return dedupe(topics)
}

// transcriptFlags derives the teacher-facing warning flags
func transcriptFlags(transcript []models.ChatMessage) []string {
	var flags []string
	if len(transcript) >= 8 {
		flags = append(flags, flagManyQuestions)
	}
	for _, m := range transcript {
		if m.Role != "user" {
			continue
		}
		lower := strings.ToLower(m.Content)
		found := false
		for _, kw := range strugglingKeywords {
			if strings.Contains(lower, kw) {
				flags = append(flags, flagStruggling)
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	return flags
}

// ruleCoachReply dispatches a canned coaching reply on the latest user
// message
func ruleCoachReply(hw *models.Homework, message string) string {
	lower := strings.ToLower(message)

	switch {
	case containsAny(lower, "баста", "көмек", "қалай", "start", "help"):
		steps := hw.StepHints
		if len(steps) == 0 {
			steps = genericSteps
		}
		var b strings.Builder
		b.WriteString("Былай бастап көрейік:")
		for i, step := range steps {
			b.WriteString(fmt.Sprintf("\n%d. %s", i+1, step))
		}
		return b.String()
	case containsAny(lower, "тексер", "дұрыс", "check", "correct"):
		return "Жақсы! Алдымен өз шешіміңнің 1–2 қадамын жазып жіберші, сосын бірге тексереміз."
	default:
		return "Есепті қалай бастағаныңды жазып жіберші — бірінші әрекетіңнен бастап бірге талдаймыз."
	}
}

func (s *ReflectionService) reflectionPrompt(hw *models.Homework, finalAnswer string) string {
	var b strings.Builder
	b.WriteString(personaInstruction)
	b.WriteString("\n\nТапсырма тақырыбы: " + hw.Topic)
	b.WriteString("\nТапсырма мәтіні: " + hw.TaskText)
	if len(hw.StepHints) > 0 {
		b.WriteString("\nМұғалімнің қадамдық нұсқаулары: " + strings.Join(hw.StepHints, "; "))
	}
	b.WriteString("\nОқушының соңғы жауабы: " + finalAnswer)
	b.WriteString("\n\nОсы сессия бойынша оқушыға қысқаша, жігерлендіретін қорытынды пікір жаз.")
	return b.String()
}

func (s *ReflectionService) coachPrompt(hw *models.Homework) string {
	var b strings.Builder
	b.WriteString(personaInstruction)
	b.WriteString("\n\nТапсырма тақырыбы: " + hw.Topic)
	b.WriteString("\nТапсырма мәтіні: " + hw.TaskText)
	if len(hw.StepHints) > 0 {
		b.WriteString("\nМұғалімнің қадамдық нұсқаулары: " + strings.Join(hw.StepHints, "; "))
	}
	return b.String()
}

func latestUserMessage(transcript []models.ChatMessage) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == "user" {
			return transcript[i].Content
		}
	}
	return ""
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
