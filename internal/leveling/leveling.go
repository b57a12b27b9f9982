package leveling

// Engine adjusts a user's practice difficulty (1-5, A1-C1) from the quality
// of their recent answers.
type Engine struct {
	// Порог среднего качества для перехода на уровень выше
	PromoteThreshold float64
	// Порог среднего качества, ниже которого уровень понижается
	DemoteThreshold float64
	// Number of recent answers that must exist before any adjustment
	WindowSize int
	MinLevel   int
	MaxLevel   int
}

// NewEngine создает новый экземпляр Engine с настройками по умолчанию
func NewEngine() *Engine {
	return &Engine{
		PromoteThreshold: 85,
		DemoteThreshold:  50,
		WindowSize:       10,
		MinLevel:         1,
		MaxLevel:         5,
	}
}

// Next returns the difficulty the user should practice at, given the current
// level and the quality scores of their most recent answers (newest first,
// 0-100 each). With fewer than WindowSize answers on record the level is left
// alone: a couple of lucky or unlucky tasks is not evidence.
func (e *Engine) Next(current int, recent []int) int {
	level := e.clamp(current)

	if len(recent) < e.WindowSize {
		return level
	}

	sum := 0
	for _, q := range recent[:e.WindowSize] {
		sum += q
	}
	avg := float64(sum) / float64(e.WindowSize)

	switch {
	case avg >= e.PromoteThreshold:
		return e.clamp(level + 1)
	case avg < e.DemoteThreshold:
		return e.clamp(level - 1)
	}
	return level
}

func (e *Engine) clamp(level int) int {
	if level < e.MinLevel {
		return e.MinLevel
	}
	if level > e.MaxLevel {
		return e.MaxLevel
	}
	return level
}
