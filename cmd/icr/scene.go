package main

import (
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/akmonengine/icr/contact"
	"github.com/akmonengine/icr/surface"
	"github.com/akmonengine/icr/wrench"
)

// sceneFile is the JSON layout of one grasp trial.
type sceneFile struct {
	// ObjectPose is the object pose in the world frame; contacts are given in the world
	// frame when it is set.
	ObjectPose *poseFile      `json:"object_pose,omitempty"`
	Contacts   []contactFile  `json:"contacts"`
	Battery    *batteryFile   `json:"battery,omitempty"`
	Surface    []surfacePoint `json:"surface,omitempty"`
}

type poseFile struct {
	Position mgl64.Vec3 `json:"position"`
	// Rotation is a quaternion as w, x, y, z.
	Rotation [4]float64 `json:"rotation"`
}

type contactFile struct {
	Position mgl64.Vec3 `json:"position"`
	Normal   mgl64.Vec3 `json:"normal"`
}

// batteryFile describes a ring of task wrenches: every force applied at origin, turned
// Steps times around Axis.
type batteryFile struct {
	Origin mgl64.Vec3   `json:"origin"`
	Axis   mgl64.Vec3   `json:"axis"`
	Steps  int          `json:"steps"`
	Forces []mgl64.Vec3 `json:"forces"`
}

type surfacePoint struct {
	ID        int        `json:"id"`
	Position  mgl64.Vec3 `json:"position"`
	Normal    mgl64.Vec3 `json:"normal"`
	Neighbors []int      `json:"neighbors"`
	Allowed   *bool      `json:"allowed,omitempty"`
}

// scene is a decoded grasp trial, in the object frame.
type scene struct {
	name     string
	contacts []contact.Contact
	battery  []wrench.Wrench
	sample   *surface.Sample
}

func readScene(path string) (*scene, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scene %s", path)
	}

	var f sceneFile
	if err := json.Unmarshal(buf, &f); err != nil {
		return nil, errors.Wrapf(err, "decoding scene %s", path)
	}

	s, err := f.decode()
	if err != nil {
		return nil, errors.Wrapf(err, "scene %s", path)
	}
	s.name = path
	return s, nil
}

func (f sceneFile) decode() (*scene, error) {
	s := &scene{
		contacts: lo.Map(f.Contacts, func(c contactFile, _ int) contact.Contact {
			return contact.Contact{Position: c.Position, Normal: c.Normal}
		}),
	}

	if f.ObjectPose != nil {
		r := f.ObjectPose.Rotation
		q := mgl64.Quat{W: r[0], V: mgl64.Vec3{r[1], r[2], r[3]}}
		if q.Len() == 0 {
			return nil, errors.New("object pose rotation is a zero quaternion")
		}
		s.contacts = contact.ToObjectFrame(s.contacts, contact.NewPose(f.ObjectPose.Position, q))
	}

	if b := f.Battery; b != nil {
		if b.Steps > 0 && b.Axis.Len() > 0 {
			s.battery = wrench.RingBattery(b.Origin, b.Axis, b.Steps, b.Forces...)
		} else {
			s.battery = wrench.Battery(b.Origin, b.Forces...)
		}
	}

	if len(f.Surface) > 0 {
		points := lo.Map(f.Surface, func(p surfacePoint, _ int) surface.Point {
			return surface.Point{
				ID:        p.ID,
				Position:  p.Position,
				Normal:    p.Normal,
				Neighbors: p.Neighbors,
				Allowed:   p.Allowed == nil || *p.Allowed,
			}
		})
		sample, err := surface.NewSample(points)
		if err != nil {
			return nil, err
		}
		s.sample = sample
	}

	return s, nil
}
