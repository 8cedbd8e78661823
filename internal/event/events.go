package event

import "time"

type Event interface {
	Message() string
	Supervisor() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	message    string
	supervisor string
	occurredAt time.Time
}

func (b BaseEvent) Message() string {
	return b.message
}

func (b BaseEvent) Supervisor() string {
	return b.supervisor
}

func (b BaseEvent) OccurredAt() time.Time {
	return b.occurredAt
}

func Text(supervisor string, message string) BaseEvent {
	return BaseEvent{
		message:    message,
		supervisor: supervisor,
		occurredAt: time.Now(),
	}
}

type LeaderZoneChangedEvent struct {
	BaseEvent
	Leader string
	From   string
	To     string
}

func LeaderZoneChanged(be BaseEvent, leader, from, to string) LeaderZoneChangedEvent {
	return LeaderZoneChangedEvent{BaseEvent: be, Leader: leader, From: from, To: to}
}

type PortalTransitionEvent struct {
	BaseEvent
	Active   bool
	Distance float64
}

func PortalTransition(be BaseEvent, active bool, distance float64) PortalTransitionEvent {
	return PortalTransitionEvent{BaseEvent: be, Active: active, Distance: distance}
}

type TaskAbandonedEvent struct {
	BaseEvent
	TaskType string
	Attempts int
	Reason   string
}

func TaskAbandoned(be BaseEvent, taskType string, attempts int, reason string) TaskAbandonedEvent {
	return TaskAbandonedEvent{BaseEvent: be, TaskType: taskType, Attempts: attempts, Reason: reason}
}

type ZoneLoadedEvent struct {
	BaseEvent
	Zone          string
	TerrainLoaded bool
}

func ZoneLoaded(be BaseEvent, zone string, terrainLoaded bool) ZoneLoadedEvent {
	return ZoneLoadedEvent{BaseEvent: be, Zone: zone, TerrainLoaded: terrainLoaded}
}

type LeaderLostEvent struct {
	BaseEvent
	Leader string
}

func LeaderLost(be BaseEvent, leader string) LeaderLostEvent {
	return LeaderLostEvent{BaseEvent: be, Leader: leader}
}

type NgrokTunnelEvent struct {
	BaseEvent
	URL string
}

func NgrokTunnel(url string) NgrokTunnelEvent {
	return NgrokTunnelEvent{
		BaseEvent: Text("", "ngrok tunnel: "+url),
		URL:       url,
	}
}
