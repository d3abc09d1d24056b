// Package sim provides an in-memory [hal.Peripheral] implementation.
//
// It is intended for tests and examples: the simulated peripheral
// records armed transfers, SETUP acknowledgements, stalls, and resume
// signaling, and plays the host side of the bus so a complete control
// transfer can be driven without hardware:
//
//	h := sim.New()
//	core := device.New(h, registry, strings, cfg)
//
//	var sp hal.SetupPacket
//	sp.RequestType = 0x80
//	sp.Request = 0x06 // GET_DESCRIPTOR
//	sp.Value = 0x0100
//	sp.Length = 18
//	data, zlp, err := h.ControlIn(core.HandleEvent, sp)
//
// The host model in [HAL.DrainIn] follows USB 2.0 data stage framing: it
// keeps requesting packets while they arrive full-sized and the
// requested length has not been reached, so short packets and
// zero-length terminators appear exactly as they would on a bus.
package sim
