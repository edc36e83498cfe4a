package sim

import (
	"github.com/kvats/rigidsim/internal/model"
	"github.com/kvats/rigidsim/internal/physics"
	"github.com/kvats/rigidsim/internal/spatial"
)

// Data is the simulator state: the integer-nanosecond time base, the world
// configuration shared by every model, and the model registry. The registry
// is an arena: a name index into a contiguous store kept in insertion order.
type Data struct {
	TimeNS        int64
	Terrain       physics.Terrain
	ContactParams physics.SoftContactsParams
	Gravity       spatial.Vec3

	names  map[string]int
	models []*model.Model
}

// NewData returns simulator data with a flat terrain, default soft-contact
// parameters and standard gravity.
func NewData() *Data {
	return &Data{
		Terrain:       physics.FlatTerrain{},
		ContactParams: physics.DefaultSoftContactsParams(),
		Gravity:       physics.DefaultGravity(),
		names:         make(map[string]int),
	}
}

func (d *Data) insert(m *model.Model) error {
	if _, ok := d.names[m.Name()]; ok {
		return ErrDuplicateModelName
	}
	d.names[m.Name()] = len(d.models)
	d.models = append(d.models, m)
	return nil
}

func (d *Data) remove(name string) error {
	idx, ok := d.names[name]
	if !ok {
		return ErrModelNotFound
	}
	d.models = append(d.models[:idx], d.models[idx+1:]...)
	delete(d.names, name)
	for i := idx; i < len(d.models); i++ {
		d.names[d.models[i].Name()] = i
	}
	return nil
}

func (d *Data) get(name string) (*model.Model, bool) {
	idx, ok := d.names[name]
	if !ok {
		return nil, false
	}
	return d.models[idx], true
}

func (d *Data) modelNames() []string {
	names := make([]string, len(d.models))
	for i, m := range d.models {
		names[i] = m.Name()
	}
	return names
}

func (d *Data) clear() {
	d.names = make(map[string]int)
	d.models = nil
}
