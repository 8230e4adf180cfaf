package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged rolling.
// Dice expressions and labelled draws are logged at debug level.
//
// Roller itself satisfies Source, so it can be handed to any consumer that
// only needs raw draws.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
// Postcondition: result logged; returns RollResult or error.
func (r *Roller) Roll(expr Expression) (RollResult, error) {
	result, err := Roll(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}

// RollExpr parses expr and rolls it, logging the result.
//
// Precondition: expr must be a valid dice expression string.
// Postcondition: Returns a RollResult or a parse/roll error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e)
}

// Intn delegates to the wrapped Source.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Float64 delegates to the wrapped Source.
func (r *Roller) Float64() float64 { return r.src.Float64() }

// Percent draws a uniform value in [0, 100) and logs it under label.
func (r *Roller) Percent(label string) float64 {
	v := r.src.Float64() * 100
	r.logger.Debug("percent draw", zap.String("label", label), zap.Float64("value", v))
	return v
}

// Chance reports whether a uniform [0, 1) draw falls below p.
//
// Postcondition: always false when p <= 0; always true when p >= 1.
func (r *Roller) Chance(label string, p float64) bool {
	v := r.src.Float64()
	hit := v < p
	r.logger.Debug("chance draw",
		zap.String("label", label),
		zap.Float64("value", v),
		zap.Float64("threshold", p),
		zap.Bool("hit", hit),
	)
	return hit
}
