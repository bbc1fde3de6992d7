package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// triangleScene places the object at offset in the world and grips it with three
// contacts at 120° around its origin. The surface is a ring of 24 points through the
// contacts' circle.
func triangleScene(offset mgl64.Vec3) sceneFile {
	f := sceneFile{
		ObjectPose: &poseFile{Position: offset, Rotation: [4]float64{1, 0, 0, 0}},
		Battery: &batteryFile{
			Axis:   mgl64.Vec3{0, 0, 1},
			Steps:  4,
			Forces: []mgl64.Vec3{{1, 0, 0}},
		},
	}
	for _, p := range []mgl64.Vec3{{0.03, 0, 0}, {-0.015, 0.026, 0}, {-0.015, -0.026, 0}} {
		f.Contacts = append(f.Contacts, contactFile{Position: p.Add(offset), Normal: p.Mul(-1).Normalize()})
	}

	const around = 24
	for a := 0; a < around; a++ {
		theta := 2 * math.Pi * float64(a) / around
		p := mgl64.Vec3{0.03 * math.Cos(theta), 0.03 * math.Sin(theta), 0}
		f.Surface = append(f.Surface, surfacePoint{
			ID:        a,
			Position:  p,
			Normal:    p.Mul(-1).Normalize(),
			Neighbors: []int{(a + around - 1) % around, (a + 1) % around},
		})
	}
	return f
}

func writeJSON(t *testing.T, name string, v any) string {
	t.Helper()
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func TestSceneDecode(t *testing.T) {
	offset := mgl64.Vec3{1, 2, 3}
	s, err := triangleScene(offset).decode()
	require.NoError(t, err)

	require.Len(t, s.contacts, 3)
	assert.InDelta(t, 0.03, s.contacts[0].Position.X(), 1e-12)
	assert.InDelta(t, 0, s.contacts[0].Position.Y(), 1e-12)
	assert.InDelta(t, 0, s.contacts[0].Position.Z(), 1e-12)
	assert.Len(t, s.battery, 4)
	require.NotNil(t, s.sample)
	assert.Equal(t, 24, s.sample.Len())
	assert.True(t, s.sample.Points()[0].Allowed)
}

func TestSceneDecode_Errors(t *testing.T) {
	f := triangleScene(mgl64.Vec3{})
	f.ObjectPose.Rotation = [4]float64{}
	_, err := f.decode()
	assert.Error(t, err)

	f = triangleScene(mgl64.Vec3{})
	f.Surface[3].Neighbors = []int{99}
	_, err = f.decode()
	assert.Error(t, err)
}

func TestEvaluateCommand(t *testing.T) {
	scene := writeJSON(t, "triangle.json", triangleScene(mgl64.Vec3{0.5, 0, 0.2}))
	config := writeJSON(t, "config.json", map[string]any{"quality_margin": 0.0001, "workers": 2})

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run([]string{"icr", "evaluate", "--config", config, "--log-level", "error", scene, scene})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "force closure: true")
	assert.Contains(t, out.String(), "contact 2   points in ICR:")
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("contacts: 3")))
}

func TestEvaluateCommand_Errors(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ExitErrHandler = func(*cli.Context, error) {}

	assert.Error(t, app.Run([]string{"icr", "evaluate"}))
	assert.Error(t, app.Run([]string{"icr", "evaluate", filepath.Join(t.TempDir(), "missing.json")}))
}

func TestCheckConfigCommand(t *testing.T) {
	good := writeJSON(t, "good.json", map[string]any{"friction": 0.8})
	bad := writeJSON(t, "bad.json", map[string]any{"friction": -1, "cone_rays": 1})

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	require.NoError(t, app.Run([]string{"icr", "check-config", good}))
	assert.Contains(t, out.String(), "ok")
	assert.Error(t, app.Run([]string{"icr", "check-config", bad}))
}
