package sx127x

import "periph.io/x/conn/v3/physic"

// DefaultCrystal is the reference oscillator fitted to SX1276/RFM95 modules.
const DefaultCrystal = 32 * physic.MegaHertz

// The synthesizer step is crystal / 2^19. Dividing by crystal >> (19-stepShift)
// instead keeps the whole computation inside uint32 while preserving
// round-to-nearest on the fractional part.
const stepShift = 8

const defaultCrystalHz uint32 = 32000000

// HzToSteps converts a frequency to the 24-bit synthesizer value of a
// 32 MHz part.
func HzToSteps(hz uint32) uint32 {
	return hzToSteps(hz, defaultCrystalHz)
}

// StepsToHz is the inverse of HzToSteps, rounded to the nearest Hz.
func StepsToHz(steps uint32) uint32 {
	return stepsToHz(steps, defaultCrystalHz)
}

func hzToSteps(hz, crystalHz uint32) uint32 {
	scale := crystalHz >> (19 - stepShift)
	whole := hz / scale
	frac := hz - whole*scale
	return whole<<stepShift + (frac<<stepShift+scale/2)/scale
}

func stepsToHz(steps, crystalHz uint32) uint32 {
	scale := crystalHz >> (19 - stepShift)
	whole := steps >> stepShift
	frac := steps - whole<<stepShift
	return whole*scale + (frac*scale+1<<(stepShift-1))>>stepShift
}

// frfBytes splits a synthesizer value into RegFrfMsb, RegFrfMid, RegFrfLsb.
func frfBytes(steps uint32) [3]byte {
	return [3]byte{byte(steps >> 16), byte(steps >> 8), byte(steps)}
}

func crystalHz(f physic.Frequency) uint32 {
	if f <= 0 {
		return defaultCrystalHz
	}
	return uint32(f / physic.Hertz)
}
