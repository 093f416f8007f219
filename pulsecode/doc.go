// Package pulsecode decodes and encodes 433 MHz remote-control codes
// captured as pulse durations.
//
// A capture is a Train of pulses alternating between high and low,
// starting high, with durations in microseconds as measured by a receiver
// or a GPIO edge timer. Decoding runs in two steps:
//
//   - Classify groups the jittery durations into a few duration classes
//     (symbols), numbered by ascending duration.
//   - Decode splits the classified stream at gap pulses, checks that the
//     repeats agree and keeps one repeat as the base pattern of a Code.
//
// Encode turns a Code back into an exact pulse train for a transmitter.
//
//	train := pulsecode.NewTrain(durations)
//	code, err := pulsecode.DecodeTrain(train, pulsecode.DefaultOptions())
//	if err != nil {
//		// errors.Is(err, pulsecode.ErrClassification) etc.
//	}
//	out, err := pulsecode.Encode(code, 5, pulsecode.DefaultOptions())
//
// Codes of fixed-code remotes (PT2262, EV1527) can also be read as bits
// with Code.Bits.
//
// All functions are pure and safe for concurrent use on separate inputs.
package pulsecode
