package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned for an event the current step does not accept.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrBusy is returned when parameters are submitted while a run is pending.
	ErrBusy = errors.New("a simulation is already running")
	// ErrStale marks a completion for a run the wizard no longer waits for.
	ErrStale = errors.New("stale simulation outcome")
)

// Event is one of the types below.
type Event interface{ event() }

type (
	ModeSelected        struct{ Mode Mode }
	AssetSelected       struct{ Asset Asset }
	ColumnSelected      struct{ Column string }
	ParamsSubmitted     struct{ Params Params }
	SimulationSucceeded struct {
		Run    int
		Result Result
	}
	SimulationFailed struct {
		Run     int
		Message string
	}
	// ErrorRaised records a failed side effect (upload, column lookup)
	// without changing step.
	ErrorRaised struct{ Message string }
	Back        struct{}
	Restart     struct{}
)

func (ModeSelected) event()        {}
func (AssetSelected) event()       {}
func (ColumnSelected) event()      {}
func (ParamsSubmitted) event()     {}
func (SimulationSucceeded) event() {}
func (SimulationFailed) event()    {}
func (ErrorRaised) event()         {}
func (Back) event()                {}
func (Restart) event()             {}

// Reduce applies ev to s. On error the returned state equals s.
func Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case ModeSelected:
		if s.Step != DataSource {
			return s, invalid(s, ev)
		}
		if e.Mode != SingleAsset && e.Mode != Portfolio {
			return s, fmt.Errorf("unknown mode %q", e.Mode)
		}
		next := s
		if s.Mode != e.Mode {
			next.Asset, next.Params = nil, nil
		}
		next.Mode = e.Mode
		next.Step = DefineAsset
		next.Error = ""
		return next, nil

	case AssetSelected:
		if s.Step != DefineAsset {
			return s, invalid(s, ev)
		}
		if err := assetFitsMode(e.Asset, s.Mode); err != nil {
			return s, err
		}
		next := s
		a := e.Asset.WithColumn(e.Asset.Column)
		next.Asset = &a
		next.Error = ""
		if a.Kind == FileAsset {
			next.Step = DefineColumns
		} else {
			next.Step = SetParams
		}
		return next, nil

	case ColumnSelected:
		if s.Step != DefineColumns || s.Asset == nil || s.Asset.Kind != FileAsset {
			return s, invalid(s, ev)
		}
		next := s
		a := s.Asset.WithColumn(e.Column)
		next.Asset = &a
		next.Step = SetParams
		next.Error = ""
		return next, nil

	case ParamsSubmitted:
		if s.Step != SetParams || s.Asset == nil {
			return s, invalid(s, ev)
		}
		if s.Pending {
			return s, ErrBusy
		}
		if err := e.Params.Validate(s.Mode); err != nil {
			return s, err
		}
		next := s
		p := e.Params
		p.Percentiles = append([]float64(nil), e.Params.Percentiles...)
		next.Params = &p
		next.Result = nil
		next.Error = ""
		next.Pending = true
		next.Run = s.Run + 1
		return next, nil

	case SimulationSucceeded:
		if !awaiting(s, e.Run) {
			return s, ErrStale
		}
		if (e.Result.Simulation == nil) == (e.Result.Portfolio == nil) {
			return s, errors.New("simulation outcome must carry exactly one result")
		}
		next := s
		r := e.Result
		next.Result = &r
		next.Pending = false
		next.Step = ViewReport
		return next, nil

	case SimulationFailed:
		if !awaiting(s, e.Run) {
			return s, ErrStale
		}
		next := s
		next.Pending = false
		next.Error = e.Message
		return next, nil

	case ErrorRaised:
		next := s
		next.Error = e.Message
		return next, nil

	case Back:
		next := s
		next.Error = ""
		switch s.Step {
		case DataSource:
			return s, invalid(s, ev)
		case DefineAsset:
			next.Step = DataSource
		case DefineColumns:
			next.Step = DefineAsset
		case SetParams:
			next.Pending = false
			if s.Asset != nil && s.Asset.Kind == FileAsset {
				next.Step = DefineColumns
			} else {
				next.Step = DefineAsset
			}
		case ViewReport:
			next.Result = nil
			next.Step = SetParams
		}
		return next, nil

	case Restart:
		next := Initial()
		next.Run = s.Run
		return next, nil
	}
	return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
}

func awaiting(s State, run int) bool {
	return s.Step == SetParams && s.Pending && run == s.Run
}

func invalid(s State, ev Event) error {
	return fmt.Errorf("%w: %T at %s", ErrInvalidTransition, ev, s.Step)
}

func assetFitsMode(a Asset, m Mode) error {
	switch a.Kind {
	case TickerAsset:
		if a.Ticker == "" {
			return errors.New("ticker is required")
		}
	case FileAsset:
		if a.FilePath == "" {
			return errors.New("uploaded file path is required")
		}
	case PortfolioAsset:
		if len(a.Holdings) == 0 {
			return errors.New("add at least one holding")
		}
	default:
		return fmt.Errorf("unknown asset kind %q", a.Kind)
	}
	if (m == Portfolio) != (a.Kind == PortfolioAsset) {
		return fmt.Errorf("%s asset does not fit %s mode", a.Kind, m)
	}
	return nil
}
