// Package directory holds the activity directory model shared by the API
// client, the board controller and the reference activities API.
//
// A Directory is an ordered list of activities. The order is the order of keys
// in the JSON object returned by GET /activities, which is the order cards are
// rendered in. Directories are treated as immutable snapshots: every method
// that changes rosters returns a copy.
package directory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when a directory payload is not valid JSON or is
// not shaped like a mapping of activity name to activity info.
var ErrMalformed = errors.New("malformed activity directory")

// Activity is a named extracurricular offering with its schedule, capacity and roster.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// HasParticipant reports whether email is on the roster.
func (a Activity) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// Full reports whether the roster has reached capacity.
func (a Activity) Full() bool {
	return len(a.Participants) >= a.MaxParticipants
}

func (a Activity) clone() Activity {
	c := a
	c.Participants = make([]string, len(a.Participants))
	copy(c.Participants, a.Participants)
	return c
}

// Directory is an ordered mapping from activity name to Activity.
type Directory struct {
	activities []Activity
}

// New builds a Directory from activities in the given order. A later activity
// with a name already seen replaces the earlier one in place.
func New(activities ...Activity) Directory {
	var d Directory
	for _, a := range activities {
		d.put(a.clone())
	}
	return d
}

func (d *Directory) put(a Activity) {
	for i := range d.activities {
		if d.activities[i].Name == a.Name {
			d.activities[i] = a
			return
		}
	}
	d.activities = append(d.activities, a)
}

// Len returns the number of activities.
func (d Directory) Len() int {
	return len(d.activities)
}

// Names returns activity names in directory order.
func (d Directory) Names() []string {
	names := make([]string, len(d.activities))
	for i, a := range d.activities {
		names[i] = a.Name
	}
	return names
}

// Activities returns a copy of all activities in directory order.
func (d Directory) Activities() []Activity {
	result := make([]Activity, len(d.activities))
	for i, a := range d.activities {
		result[i] = a.clone()
	}
	return result
}

// Get returns the activity with the given name.
func (d Directory) Get(name string) (Activity, bool) {
	for _, a := range d.activities {
		if a.Name == name {
			return a.clone(), true
		}
	}
	return Activity{}, false
}

// Clone returns a deep copy of the directory.
func (d Directory) Clone() Directory {
	return New(d.activities...)
}

// WithParticipant returns a copy of the directory with email appended to the
// named activity's roster. Unknown activity names yield an unchanged copy.
func (d Directory) WithParticipant(name, email string) Directory {
	c := d.Clone()
	for i := range c.activities {
		if c.activities[i].Name == name {
			c.activities[i].Participants = append(c.activities[i].Participants, email)
			break
		}
	}
	return c
}

// WithoutParticipant returns a copy of the directory with every occurrence of
// email removed from the named activity's roster.
func (d Directory) WithoutParticipant(name, email string) Directory {
	c := d.Clone()
	for i := range c.activities {
		if c.activities[i].Name != name {
			continue
		}
		kept := c.activities[i].Participants[:0]
		for _, p := range c.activities[i].Participants {
			if p != email {
				kept = append(kept, p)
			}
		}
		c.activities[i].Participants = kept
		break
	}
	return c
}

// Decode parses a GET /activities payload, keeping the key order of the JSON object.
func Decode(data []byte) (Directory, error) {
	if !gjson.ValidBytes(data) {
		return Directory{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Directory{}, fmt.Errorf("%w: expected a JSON object, got %s", ErrMalformed, root.Type)
	}

	var (
		d      Directory
		decErr error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			decErr = fmt.Errorf("%w: activity %q is not an object", ErrMalformed, key.String())
			return false
		}
		maxParticipants := value.Get("max_participants")
		if maxParticipants.Type != gjson.Null && !isWholeNumber(maxParticipants) {
			decErr = fmt.Errorf("%w: max_participants of %q is not a whole number: %s", ErrMalformed, key.String(), maxParticipants.Raw)
			return false
		}
		a := Activity{
			Name:            key.String(),
			Description:     value.Get("description").String(),
			Schedule:        value.Get("schedule").String(),
			MaxParticipants: int(maxParticipants.Int()),
			Participants:    []string{},
		}
		participants := value.Get("participants")
		if participants.Exists() && !participants.IsArray() {
			decErr = fmt.Errorf("%w: participants of %q is not an array", ErrMalformed, a.Name)
			return false
		}
		for _, p := range participants.Array() {
			a.Participants = append(a.Participants, p.String())
		}
		d.put(a)
		return true
	})
	if decErr != nil {
		return Directory{}, decErr
	}
	return d, nil
}

// isWholeNumber reports whether r is a non-negative JSON integer.
func isWholeNumber(r gjson.Result) bool {
	return r.Type == gjson.Number && r.Num >= 0 && r.Num == math.Trunc(r.Num)
}

// MarshalJSON encodes the directory as a JSON object in directory order.
func (d Directory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range d.activities {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		if a.Participants == nil {
			a.Participants = []string{}
		}
		value, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encoding activity %q: %w", a.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler using Decode.
func (d *Directory) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

// Snapshot is a directory as returned by one committed fetch.
type Snapshot struct {
	// Version is the generation of the fetch that produced the snapshot.
	Version   uint64    `json:"version"`
	FetchedAt time.Time `json:"fetched_at"`
	Directory Directory `json:"directory"`
}
