package progress

import (
	"time"

	"github.com/relabs-tech/camera_tester/internal/calibration"
	"github.com/relabs-tech/camera_tester/internal/scan"
)

// Recorder turns scan and calibration callbacks into Events and hands them to
// emit. It implements scan.Observer and calibration.Observer.
type Recorder struct {
	emit  func(Event)
	now   func() time.Time
	stage calibration.Stage
}

// NewRecorder creates a Recorder.
func NewRecorder(emit func(Event)) *Recorder {
	return &Recorder{emit: emit, now: time.Now}
}

func (r *Recorder) StageEntered(stage calibration.Stage) {
	r.stage = stage
	r.emit(Event{Type: TypeStage, Time: r.now(), Stage: string(stage)})
}

func (r *Recorder) ScanStarted(p scan.Params) {
	r.emit(Event{
		Type:      TypeScanStart,
		Time:      r.now(),
		Stage:     string(r.stage),
		Min:       p.Min,
		Max:       p.Max,
		Divisions: p.Divisions,
	})
}

func (r *Recorder) SampleTaken(s scan.Sample) {
	ev := Event{
		Type:  TypeSample,
		Time:  r.now(),
		Stage: string(r.stage),
		Index: s.Index,
		Duty:  s.Duty,
		Lux:   s.Lux,
	}
	if s.Matched {
		ev.Band = s.Band.String()
	}
	r.emit(ev)
}

func (r *Recorder) ScanFinished(res *scan.Result) {
	r.emit(Event{
		Type:      TypeScanEnd,
		Time:      r.now(),
		Stage:     string(r.stage),
		Min:       res.Params.Min,
		Max:       res.Params.Max,
		Divisions: res.Params.Divisions,
		Samples:   res.Samples,
		Aborted:   res.Aborted,
	})
}

func (r *Recorder) Finished(o *calibration.Outcome) {
	r.emit(ResultEvent(o, r.now()))
}

// ResultEvent summarises an outcome.
func ResultEvent(o *calibration.Outcome, at time.Time) Event {
	ev := Event{Type: TypeResult, Time: at, OK: o.OK(), Ambient: o.Ambient}
	for _, s := range o.Settings {
		ev.Settings = append(ev.Settings, Setting{
			Band:      s.Band.ID.String(),
			Luminance: s.Band.Luminance,
			Duty:      s.Duty,
			Found:     s.Found,
		})
	}
	for _, f := range o.Failures {
		ev.Failures = append(ev.Failures, f.Error())
	}
	return ev
}
