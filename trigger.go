package kinetic

// TriggerContext is the step/time snapshot triggers decide on.
type TriggerContext struct {
	Step int
	Time float64
}

// Trigger is a predicate over the simulation clock, composable with And,
// Or and Not.
type Trigger func(ctx TriggerContext) bool

func (t Trigger) And(other Trigger) Trigger {
	return func(ctx TriggerContext) bool { return t(ctx) && other(ctx) }
}

func (t Trigger) Or(other Trigger) Trigger {
	return func(ctx TriggerContext) bool { return t(ctx) || other(ctx) }
}

func (t Trigger) Not() Trigger {
	return func(ctx TriggerContext) bool { return !t(ctx) }
}

func Always() Trigger {
	return func(TriggerContext) bool { return true }
}

func Never() Trigger {
	return func(TriggerContext) bool { return false }
}

// Every fires on every k-th step, counted from offset.
func Every(k, offset int) Trigger {
	return func(ctx TriggerContext) bool {
		if ctx.Step < offset {
			return false
		}
		return (ctx.Step-offset)%k == 0
	}
}

// AtStep fires exactly once.
func AtStep(k int) Trigger {
	return func(ctx TriggerContext) bool { return ctx.Step == k }
}

// After fires from step k onward.
func After(k int) Trigger {
	return func(ctx TriggerContext) bool { return ctx.Step >= k }
}

// Between fires on steps in [a, b].
func Between(a, b int) Trigger {
	return func(ctx TriggerContext) bool { return ctx.Step >= a && ctx.Step <= b }
}

// AfterTime fires once the simulation time reaches t.
func AfterTime(t float64) Trigger {
	return func(ctx TriggerContext) bool { return ctx.Time >= t }
}

// Periodically fires on its first query and then whenever at least dt has
// elapsed since its last firing. The trigger is stateful: it keeps its last
// firing time across runs.
func Periodically(dt float64) Trigger {
	next := 0.0
	return func(ctx TriggerContext) bool {
		if ctx.Time+1e-12 < next {
			return false
		}
		next = ctx.Time + dt
		return true
	}
}
