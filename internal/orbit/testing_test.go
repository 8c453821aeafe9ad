package orbit

import "github.com/litescript/ls-orbits/internal/tle"

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"

	vanguardLine1 = "1 00005U 58002B   00179.78495062  .00000023  00000-0  28098-4 0  4753"
	vanguardLine2 = "2 00005  34.2682 348.7242 1859667 331.7664  19.3264 10.82419157413667"
)

func issRecord() tle.Record {
	return tle.Record{Name: "ISS (ZARYA)", Line1: issLine1, Line2: issLine2}
}

func vanguardRecord() tle.Record {
	return tle.Record{Name: "VANGUARD 1", Line1: vanguardLine1, Line2: vanguardLine2}
}
