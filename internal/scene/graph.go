package scene

// Graph stores scene objects in insertion order.
type Graph struct {
	objects map[ObjectID]*Object
	order   []ObjectID
	nextID  ObjectID
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{objects: make(map[ObjectID]*Object)}
}

// Add assigns o a fresh id and stores it.
func (g *Graph) Add(o *Object) ObjectID {
	g.nextID++
	o.ID = g.nextID
	g.objects[o.ID] = o
	g.order = append(g.order, o.ID)
	return o.ID
}

// Get returns the object with the given id.
func (g *Graph) Get(id ObjectID) (*Object, bool) {
	o, ok := g.objects[id]
	return o, ok
}

// Remove deletes the object and returns it.
func (g *Graph) Remove(id ObjectID) (*Object, bool) {
	o, ok := g.objects[id]
	if !ok {
		return nil, false
	}
	delete(g.objects, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return o, true
}

// Len returns the number of objects.
func (g *Graph) Len() int {
	return len(g.order)
}

// Each calls fn for every object in insertion order.
func (g *Graph) Each(fn func(*Object)) {
	for _, id := range g.order {
		fn(g.objects[id])
	}
}

// Count returns how many objects of kind k exist, and how many are visible.
func (g *Graph) Count(k Kind) (total, visible int) {
	for _, id := range g.order {
		o := g.objects[id]
		if o.Kind != k {
			continue
		}
		total++
		if o.Visible {
			visible++
		}
	}
	return total, visible
}

// Find returns the first object of kind k with the given name.
func (g *Graph) Find(k Kind, name string) (*Object, bool) {
	for _, id := range g.order {
		o := g.objects[id]
		if o.Kind == k && o.Name == name {
			return o, true
		}
	}
	return nil, false
}
