package protocol

type Event map[string]interface{}

// Agent event types. Every event carries "t" (tick) and "type".
const (
	EventActionResult    = "ACTION_RESULT"
	EventTaskDone        = "TASK_DONE"
	EventTaskFail        = "TASK_FAIL"
	EventHarvested       = "HARVESTED"
	EventResourceStored  = "RESOURCE_STORED"
	EventResourceDropped = "RESOURCE_DROPPED"
	EventResourcePicked  = "RESOURCE_PICKED"
	EventDied            = "DIED"
	EventPresent         = "PRESENT"
)
