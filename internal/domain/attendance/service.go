package attendance

import "context"

// AttendanceService records punches for the employee identified by the request context.
type AttendanceService interface {
	ClockIn(ctx context.Context, req PunchRequest) (AttendanceResponse, error)
	StartLunch(ctx context.Context) (AttendanceResponse, error)
	EndLunch(ctx context.Context) (AttendanceResponse, error)
	ClockOut(ctx context.Context, req PunchRequest) (AttendanceResponse, error)
	ListMine(ctx context.Context, req ListMyAttendanceRequest) ([]AttendanceResponse, error)
}

// ChangePublisher pushes attendance changes onto the realtime bridge.
type ChangePublisher interface {
	Publish(ctx context.Context, change Change) error
}

// ChangeSource lets consumers register for attendance changes.
// The returned function unregisters the callback.
type ChangeSource interface {
	Subscribe(fn func(Change)) (unsubscribe func())
}
