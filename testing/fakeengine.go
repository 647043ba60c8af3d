package testing

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
)

// FakeEngineModeEnv selects the fake engine's behavior:
// ok (default), unconverged, badcoord, badrecord, exit, nolog, hang.
const FakeEngineModeEnv = "FAKE_AFSMO_MODE"

var ErrNoShell = errors.New("fake engine needs sh and awk")

// WriteFakeEngine writes an executable stand-in for the smoothing engine into dir
// and returns its path. The fake reads the engine input file named by its first
// argument and writes the artifacts into its working directory. Its "smoothing"
// returns every ordinate unchanged. Like the engine, it always writes both the
// summary and the coordinates interpolated linearly onto the deck's abscissas,
// and it exits 2 on a deck that is not laid out that way.
func WriteFakeEngine(dir string) (string, error) {
	for _, bin := range []string{"sh", "awk"} {
		if _, err := exec.LookPath(bin); err != nil {
			return "", ErrNoShell
		}
	}
	if err := os.MkdirAll(dir, 0770); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "fake-afsmo")
	if err := os.WriteFile(path, []byte(fakeEngineScript), 0755); err != nil {
		return "", err
	}
	return path, nil
}

const fakeEngineScript = `#!/bin/sh
mode="${` + FakeEngineModeEnv + `:-ok}"
case "$mode" in
hang) exec sleep 30 ;;
exit) echo "fake engine failing" >&2; exit 3 ;;
nolog) exit 0 ;;
esac
echo "fake engine reading $1"
exec awk -v mode="$mode" '
function acos(z) { return atan2(sqrt(1 - z * z), z) }
function xof() { if (infmt == 2) return 0.5 * (1 - cos($1 * 3.141592653589793 / 180)); return $1 + 0 }
function wof() { if (infmt == 1 || infmt == 2) return $3 + 0; return 1 }
function interp(xs, ys, n, x,    i, t) {
	if (x <= xs[1]) return ys[1]
	for (i = 2; i <= n; i++) {
		if (x <= xs[i]) {
			t = (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + t * (ys[i] - ys[i-1])
		}
	}
	return ys[n]
}
function punchrow(f, x, y, w) {
	if (punch == 1) printf "%12.6f%12.6f%12.6f\n", x, y, w > f
	else if (punch == 2) printf "%12.6f%12.6f%12.6f\n", acos(1 - 2 * x) * 180 / 3.141592653589793, y, w > f
	else if (punch == 3) printf "%12.6f%12.6f%12.6f\n", x, y, 0 > f
	else if (punch == 4) printf "%12.6f%12.6f%12.6f%12.6f\n", x, y, 0, 0 > f
	else if (punch == 5) printf "%12.6f%12.6f%12.6f%12.6f\n", acos(1 - 2 * x) * 180 / 3.141592653589793, y, 0, 0 > f
}
NR == 1 { title = $0; next }
NR == 2 { infmt = $3 + 0; punch = $4 + 0; iout = $8 + 0; state = "nu"; next }
state == "nu" { nu = $1 + 0; k = 0; state = "up"; next }
state == "up" { k++; ux[k] = xof(); uy[k] = $2 + 0; uw[k] = wof(); if (k == nu) state = "nl"; next }
state == "nl" { nl = $1 + 0; k = 0; state = "lo"; next }
state == "lo" { k++; lx[k] = xof(); ly[k] = $2 + 0; lw[k] = wof(); if (k == nl) state = "ni"; next }
state == "ni" { ni = $1 + 0; k = 0; state = "xi"; next }
state == "xi" { k++; xi[k] = $1 + 0; if (k == ni) state = "end"; next }
state == "end" { term = $1 + 0; state = "done"; next }
END {
	if (iout != 2 || ni < 2 || term != 1) {
		print "fake engine: bad input deck (iout " iout ", " ni " abscissas, terminator " term ")"
		exit 2
	}
	lf = "afsmo.out"
	print " AFSMO AIRFOIL SMOOTHING (FAKE)" > lf
	print " " title > lf
	if (mode == "badcoord") print " *** BAD COORDINATE AT POINT 3" > lf
	if (mode == "unconverged") {
		print " ITERATIONS =  80" > lf
		print " SOLUTION NOT CONVERGED" > lf
	} else {
		print " ITERATIONS =   3" > lf
		print " SMOOTHING CONVERGED" > lf
	}
	df = "afsmo.dat"
	for (i = 1; i <= ni; i++) printf "%12.6f%12.6f\n", xi[i], interp(ux, uy, nu, xi[i]) > df
	for (i = 1; i <= ni; i++) printf "%12.6f%12.6f\n", xi[i], interp(lx, ly, nl, xi[i]) > df
	sf = "afsmo.smr"
	print " AFSMO SMOOTHING SUMMARY" > sf
	print " " title > sf
	print "" > sf
	print "    I SURF           X           Y      WEIGHT    Y SMOOTH       DELTA" > sf
	print "" > sf
	for (i = 1; i <= nu; i++) {
		if (mode == "badrecord" && i == 2) printf "%5d%5d%12.6f%12s%12.6f%12.6f%12.6f\n", i, 1, ux[i], "1.0x", uw[i], uy[i], 0 > sf
		else printf "%5d%5d%12.6f%12.6f%12.6f%12.6f%12.6f\n", i, 1, ux[i], uy[i], uw[i], uy[i], 0 > sf
	}
	for (i = 1; i <= nl; i++) printf "%5d%5d%12.6f%12.6f%12.6f%12.6f%12.6f\n", nu + i, 2, lx[i], ly[i], lw[i], ly[i], 0 > sf
	if (punch > 0) {
		pf = "afsmo.pch"
		if (punch == 6) {
			print " THICKNESS AND CAMBER" > pf
			for (i = 1; i <= nu; i++) {
				y2 = interp(lx, ly, nl, ux[i])
				printf "%12.6f%12.6f%12.6f\n", ux[i], uy[i] - y2, (uy[i] + y2) / 2 > pf
			}
		} else {
			print " UPPER SURFACE" > pf
			for (i = 1; i <= nu; i++) punchrow(pf, ux[i], uy[i], uw[i])
			print " LOWER SURFACE" > pf
			for (i = 1; i <= nl; i++) punchrow(pf, lx[i], ly[i], lw[i])
		}
	}
}
' "$1"
`
