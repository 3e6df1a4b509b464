package kinetic

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// BuildInputs is the lowered, validated form of an Environment that the
// core consumes.
type BuildInputs struct {
	Records      []ParticleRecord
	TypeMap      map[int]ParticleType
	IDMap        map[int]ParticleID
	IDToParticle []ParticleID
	Box          Box
	Flags        ContainerFlags
	ForceTable   *ForceTable
	Boundaries   *BoundaryTable
}

// BuildSystem validates the environment, lowers it into dense records and
// tables, creates the container, and assembles the System. All
// construction errors surface here; the per-step loop is total.
func BuildSystem(env *Environment, decl ContainerDecl) (*System, error) {
	inputs, err := lowerEnvironment(env)
	if err != nil {
		return nil, err
	}

	schema := inputs.ForceTable.GenerateSchema()

	container, err := decl.makeContainer(ContainerCreateInfo{
		Flags:  inputs.Flags,
		Schema: schema,
		Domain: inputs.Box,
		Log:    env.log,
	})
	if err != nil {
		return nil, err
	}
	if err := container.Build(inputs.Records); err != nil {
		return nil, err
	}

	return newSystem(
		inputs.Box,
		container,
		inputs.ForceTable,
		inputs.Boundaries,
		env.controllers,
		env.fields,
		inputs.IDToParticle,
		inputs.Flags,
		env.log,
	)
}

func lowerEnvironment(env *Environment) (*BuildInputs, error) {
	particles, err := materializeParticles(env)
	if err != nil {
		return nil, err
	}
	if len(particles) == 0 {
		return nil, fmt.Errorf("environment contains no particles")
	}

	// user ids must be unique
	seen := make(map[int]int, len(particles))
	for i, p := range particles {
		if prev, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate user particle id %d (particles %d and %d)", p.ID, prev, i)
		}
		seen[p.ID] = i
	}

	typeMap, err := buildTypeMap(env, particles)
	if err != nil {
		return nil, err
	}

	idMap, idToParticle, err := buildIDMap(env, particles, seen)
	if err != nil {
		return nil, err
	}

	box, flags, err := resolveDomain(env, particles)
	if err != nil {
		return nil, err
	}

	forceTable, err := buildForceTable(env, typeMap, idMap)
	if err != nil {
		return nil, err
	}

	boundaries, err := buildBoundaries(env, box, &flags)
	if err != nil {
		return nil, err
	}

	records := make([]ParticleRecord, len(particles))
	for i, p := range particles {
		records[i] = ParticleRecord{
			ID:          ParticleID(i),
			Type:        typeMap[p.Type],
			Position:    p.Position,
			Velocity:    p.Velocity,
			OldPosition: p.Position,
			Mass:        p.Mass,
			State:       p.State,
			UserData:    p.UserData,
		}
	}

	return &BuildInputs{
		Records:      records,
		TypeMap:      typeMap,
		IDMap:        idMap,
		IDToParticle: idToParticle,
		Box:          box,
		Flags:        flags,
		ForceTable:   forceTable,
		Boundaries:   boundaries,
	}, nil
}

func materializeParticles(env *Environment) ([]ParticleSpec, error) {
	particles := make([]ParticleSpec, len(env.particles))
	copy(particles, env.particles)

	nextID := env.nextAutoID
	emit := func(spec ParticleSpec) {
		spec.ID = nextID
		nextID++
		particles = append(particles, spec)
	}

	for _, c := range env.cuboids {
		if err := c.materialize(emit); err != nil {
			return nil, err
		}
	}
	for _, e := range env.ellipsoids {
		if err := e.materialize(emit); err != nil {
			return nil, err
		}
	}
	return particles, nil
}

// buildTypeMap densifies user type labels and checks every label is
// covered by at least one interaction.
func buildTypeMap(env *Environment, particles []ParticleSpec) (map[int]ParticleType, error) {
	labels := make(map[int]bool)
	for _, p := range particles {
		labels[p.Type] = true
	}

	declared := make(map[int]bool)
	for _, x := range env.interactions {
		switch x.scope.kind {
		case scopeToType:
			declared[x.scope.t1] = true
		case scopeBetweenTypes:
			declared[x.scope.t1] = true
			declared[x.scope.t2] = true
		}
	}

	sorted := make([]int, 0, len(labels))
	for label := range labels {
		if !declared[label] {
			return nil, fmt.Errorf("particle type %d has no declared interaction", label)
		}
		sorted = append(sorted, label)
	}
	for label := range declared {
		if !labels[label] {
			return nil, fmt.Errorf("interaction references type %d but no particle has it", label)
		}
	}
	sort.Ints(sorted)

	typeMap := make(map[int]ParticleType, len(sorted))
	for dense, label := range sorted {
		typeMap[label] = ParticleType(dense)
	}
	return typeMap, nil
}

// buildIDMap densifies the user ids mentioned by id interactions and
// resolves them to record ids.
func buildIDMap(env *Environment, particles []ParticleSpec, userIDIndex map[int]int) (map[int]ParticleID, []ParticleID, error) {
	mentioned := make(map[int]bool)
	for _, x := range env.interactions {
		if x.scope.kind != scopeBetweenIDs {
			continue
		}
		if x.scope.id1 == x.scope.id2 {
			return nil, nil, fmt.Errorf("id interaction references particle id %d twice", x.scope.id1)
		}
		for _, id := range []int{x.scope.id1, x.scope.id2} {
			if _, ok := userIDIndex[id]; !ok {
				return nil, nil, fmt.Errorf("id interaction references unknown particle id %d", id)
			}
			mentioned[id] = true
		}
	}

	sorted := make([]int, 0, len(mentioned))
	for id := range mentioned {
		sorted = append(sorted, id)
	}
	sort.Ints(sorted)

	idMap := make(map[int]ParticleID, len(sorted))
	idToParticle := make([]ParticleID, len(sorted))
	for dense, userID := range sorted {
		idMap[userID] = ParticleID(dense)
		idToParticle[dense] = ParticleID(userIDIndex[userID])
	}
	return idMap, idToParticle, nil
}

func resolveDomain(env *Environment, particles []ParticleSpec) (Box, ContainerFlags, error) {
	flags := ContainerFlags{InfiniteDomain: env.infiniteDomain}

	if env.infiniteDomain {
		inf := pseudoInf
		box := MustBox(mgl64.Vec3{-inf, -inf, -inf}, mgl64.Vec3{inf, inf, inf})
		return box, flags, nil
	}

	var box Box
	switch {
	case env.origin != nil && env.extent != nil:
		box = BoxFromDomain(Domain{Origin: *env.origin, Extent: *env.extent})
	case env.origin != nil || env.extent != nil:
		return Box{}, flags, fmt.Errorf("domain needs both origin and extent (or AutoDomain)")
	case env.autoDomainRequested:
		box = fitDomain(particles, env.autoMarginAbs, env.autoMarginFac)
	default:
		return Box{}, flags, fmt.Errorf("no domain specified: set origin and extent, request AutoDomain, or InfiniteDomain")
	}

	for i, p := range particles {
		if !box.Contains(p.Position) {
			return Box{}, flags, fmt.Errorf("particle %d at %v lies outside the domain [%v, %v]", i, p.Position, box.Min, box.Max)
		}
	}
	return box, flags, nil
}

// fitDomain pads the particle bounding box per axis by the larger of the
// absolute and the fractional margin.
func fitDomain(particles []ParticleSpec, marginAbs, marginFac float64) Box {
	min := particles[0].Position
	max := particles[0].Position
	for _, p := range particles[1:] {
		for ax := 0; ax < 3; ax++ {
			min[ax] = math.Min(min[ax], p.Position[ax])
			max[ax] = math.Max(max[ax], p.Position[ax])
		}
	}

	for ax := 0; ax < 3; ax++ {
		margin := math.Max(marginAbs, marginFac*(max[ax]-min[ax]))
		min[ax] -= margin
		max[ax] += margin
	}
	return MustBox(min, max)
}

func buildForceTable(env *Environment, typeMap map[int]ParticleType, idMap map[int]ParticleID) (*ForceTable, error) {
	var typeInteractions []TypeInteraction
	var idInteractions []IDInteraction

	for _, x := range env.interactions {
		switch x.scope.kind {
		case scopeToType:
			t := typeMap[x.scope.t1]
			typeInteractions = append(typeInteractions, TypeInteraction{Type1: t, Type2: t, Force: x.force})
		case scopeBetweenTypes:
			typeInteractions = append(typeInteractions, TypeInteraction{
				Type1: typeMap[x.scope.t1],
				Type2: typeMap[x.scope.t2],
				Force: x.force,
			})
		case scopeBetweenIDs:
			idInteractions = append(idInteractions, IDInteraction{
				ID1:   idMap[x.scope.id1],
				ID2:   idMap[x.scope.id2],
				Force: x.force,
			})
		}
	}

	return NewForceTable(typeInteractions, idInteractions, len(typeMap), len(idMap))
}

func buildBoundaries(env *Environment, box Box, flags *ContainerFlags) (*BoundaryTable, error) {
	for ax := 0; ax < 3; ax++ {
		minus := env.boundaries[Face(2*ax)]
		plus := env.boundaries[Face(2*ax+1)]

		if minus.Topology().CouplesAxis || plus.Topology().CouplesAxis {
			if !reflect.DeepEqual(minus, plus) {
				return nil, fmt.Errorf("axis %d couples its faces but carries different boundaries (%T vs %T)", ax, minus, plus)
			}
		}
	}

	table := NewBoundaryTable(env.boundaries, box)
	periodic := table.PeriodicAxes()
	flags.PeriodicX = periodic[0]
	flags.PeriodicY = periodic[1]
	flags.PeriodicZ = periodic[2]
	return table, nil
}
