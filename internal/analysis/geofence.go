package analysis

// Vertex is one corner of a slope boundary ring.
type Vertex struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Polygon is a named slope boundary. The ring is implicitly closed: the last
// vertex connects back to the first. Vertices need not be deduplicated.
type Polygon struct {
	Name     string   `json:"name"`
	Boundary []Vertex `json:"boundary"`
}

// Contains runs the even-odd ray-casting test against the boundary ring.
// Polygons with fewer than 3 vertices never match. Points exactly on an edge
// or vertex get whatever side the even-odd arithmetic lands on; callers must
// not rely on boundary inclusion.
func (p Polygon) Contains(lat, lon float64) bool {
	n := len(p.Boundary)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := p.Boundary[i].Lat, p.Boundary[i].Lon
		xj, yj := p.Boundary[j].Lat, p.Boundary[j].Lon

		// An edge counts only when its endpoints straddle the query
		// longitude. A zero longitude span cannot straddle, but degenerate
		// rings could still reach the interpolation, so guard the divisor.
		if (yi > lon) != (yj > lon) && yj != yi {
			crossingLat := (xj-xi)*(lon-yi)/(yj-yi) + xi
			if lat < crossingLat {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Registry is an immutable, ordered collection of slope polygons. Insertion
// order is classification priority: when polygons overlap, the first one
// registered that contains a point wins.
type Registry struct {
	names    []string
	polygons map[string]Polygon
}

func NewRegistry(polygons ...Polygon) *Registry {
	r := &Registry{polygons: make(map[string]Polygon, len(polygons))}
	for _, p := range polygons {
		r.add(p)
	}
	return r
}

func (r *Registry) add(p Polygon) {
	if _, ok := r.polygons[p.Name]; !ok {
		r.names = append(r.names, p.Name)
	}
	r.polygons[p.Name] = p
}

// Names returns zone names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) Get(name string) (Polygon, bool) {
	p, ok := r.polygons[name]
	return p, ok
}

func (r *Registry) Len() int {
	return len(r.names)
}

// Classify returns the name of the first registered polygon containing the
// coordinate, or false when no polygon matches.
func (r *Registry) Classify(lat, lon float64) (string, bool) {
	for _, name := range r.names {
		if r.polygons[name].Contains(lat, lon) {
			return name, true
		}
	}
	return "", false
}
