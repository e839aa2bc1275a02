package component

// Suspension gates movement until the clock reaches ResumeTick.
type Suspension struct {
	ResumeTick int
}

var SuspensionComponent = NewComponent[Suspension]("suspension")
