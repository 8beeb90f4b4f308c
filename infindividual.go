package outbreakgo

// CommPeriodType is a bit field describing how the communicable period of an
// infectious individual was generated and whether it was cut short.
type CommPeriodType uint8

const (
	// CommPeriodMain marks a communicable period drawn from the main
	// distribution.
	CommPeriodMain CommPeriodType = 1 << iota
	// CommPeriodAlt marks a communicable period drawn from the alternate
	// distribution.
	CommPeriodAlt
	// CommPeriodInterrupted marks a communicable period that was terminated
	// early by an intervention.
	CommPeriodInterrupted
	// CommPeriodTruePositiveTest marks an individual whose interruption was
	// confirmed by a positive test.
	CommPeriodTruePositiveTest
	// CommPeriodTruncated marks an individual that is still communicable at
	// the simulation horizon.
	CommPeriodTruncated
)

// InfIndividual is one slot of the simulation layer stack. It holds the
// sampled state of one infectious individual on the active descent path.
// Slots are reused across paths; UserData is allocated once when a new depth
// is first reached and belongs to the stats processor.
type InfIndividual struct {
	// UserData is an opaque per-layer pointer owned by the stats processor.
	UserData interface{}

	LatentPeriod  float64
	CommPeriod    float64
	EndCommPeriod float64 // absolute time of the end of the communicable period
	EventTime     float64 // time of the in-progress transmission event

	Generation  uint32 // depth; 0 is the virtual parent of the primaries
	NEvents     uint32
	NAttendees  uint32 // attendees of the current iteration event
	NInfections uint32 // infections of the current iteration event
	PeriodType  CommPeriodType

	curEvent     uint32
	curInfection uint32
}
