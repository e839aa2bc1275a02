package levels

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/busline/common"
)

//go:embed *.json
var LevelsFS embed.FS

// Level is the authored road network of one scene.
type Level struct {
	Name        string       `json:"name"`
	Waypoints   []Waypoint   `json:"waypoints"`
	Obstacles   []Obstacle   `json:"obstacles,omitempty"`
	Checkpoints []Checkpoint `json:"checkpoints,omitempty"`
}

// Waypoint links refer to other waypoints by name. Empty means no link.
type Waypoint struct {
	Name         string        `json:"name"`
	Position     common.Vec3   `json:"position"`
	Forward      common.Vec3   `json:"forward"`
	Width        float64       `json:"width"`
	Prev         string        `json:"prev,omitempty"`
	Next         string        `json:"next,omitempty"`
	Branches     []string      `json:"branches,omitempty"`
	BranchRatio  float64       `json:"branch_ratio"`
	Intersection *Intersection `json:"intersection,omitempty"`
}

type Intersection struct {
	Left  string `json:"left,omitempty"`
	Right string `json:"right,omitempty"`
	Kind  string `json:"kind"`
}

// Obstacle is a static box footprint on the road plane.
type Obstacle struct {
	Position common.Vec3 `json:"position"`
	Width    float64     `json:"width"`
	Depth    float64     `json:"depth"`
}

// Checkpoint is a bus stop that validates the route of vehicles entering it.
type Checkpoint struct {
	Name     string      `json:"name"`
	Position common.Vec3 `json:"position"`
	Radius   float64     `json:"radius"`
	Wait     float64     `json:"wait"`
	Reward   int         `json:"reward"`
	Penalty  int         `json:"penalty"`
}

// Load reads a level from disk when present, falling back to the embedded copy.
func Load(name string) (*Level, error) {
	clean := cleanLevelPath(name)
	data, err := os.ReadFile(filepath.Join("levels", clean))
	if err != nil {
		data, err = fs.ReadFile(LevelsFS, clean)
		if err != nil {
			return nil, fmt.Errorf("read level: %w", err)
		}
	}
	return Parse(data)
}

// LoadFile reads a level from an explicit path.
func LoadFile(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level: %w", err)
	}
	return &lvl, nil
}

func (l *Level) Marshal() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Save writes the level as indented JSON.
func Save(path string, lvl *Level) error {
	data, err := lvl.Marshal()
	if err != nil {
		return fmt.Errorf("marshal level: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write level: %w", err)
	}
	return nil
}

func cleanLevelPath(name string) string {
	s := filepath.ToSlash(name)
	s = strings.TrimPrefix(s, "levels/")
	if !strings.HasSuffix(s, ".json") {
		s += ".json"
	}
	return s
}
