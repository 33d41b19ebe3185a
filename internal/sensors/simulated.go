package sensors

import "math"

// SimulatedRig stands in for the LED, its driver and the light sensor.
// Illumination follows a gamma curve over the duty cycle on top of a
// constant ambient level:
//
//	lux = ambient + peak * (duty/65535)^gamma
type SimulatedRig struct {
	AmbientLux float64
	PeakLux    float64
	Gamma      float64

	duty uint16
}

// NewSimulatedRig creates a rig with the LED off.
func NewSimulatedRig(ambient, peak, gamma float64) *SimulatedRig {
	return &SimulatedRig{AmbientLux: ambient, PeakLux: peak, Gamma: gamma}
}

func (r *SimulatedRig) SetDutyCycle(duty uint16) error {
	r.duty = duty
	return nil
}

// Duty returns the last duty cycle set.
func (r *SimulatedRig) Duty() uint16 {
	return r.duty
}

func (r *SimulatedRig) ReadLux() (float64, error) {
	x := float64(r.duty) / MaxDuty
	return r.AmbientLux + r.PeakLux*math.Pow(x, r.Gamma), nil
}

// ReadChannels fakes a light source with a fixed 10% infrared share.
func (r *SimulatedRig) ReadChannels() (visible, infrared uint32, err error) {
	lux, err := r.ReadLux()
	if err != nil {
		return 0, 0, err
	}
	counts := uint32(lux * 100)
	return counts - counts/10, counts / 10, nil
}

func (r *SimulatedRig) Halt() error {
	r.duty = 0
	return nil
}
