// Package domain defines the subject, session and result-table records shared
// by the battery runner, the exporters and the persistence drivers.
package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Sex values accepted on the subject form.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// DateTimeLayout is the timestamp layout written to the info sheet.
const DateTimeLayout = "2006-01-02 15:04"

// Validation failures reported by Subject.Validate, in the order they are checked.
var (
	ErrNoTasks      = errors.New("no tasks selected")
	ErrNoRA         = errors.New("please enter RA name")
	ErrNoSubjectNum = errors.New("please enter a subject number")
	ErrNoCondition  = errors.New("please enter a condition number")
	ErrBadFileStem  = errors.New("subject number and condition must not contain path separators")
	ErrNoAge        = errors.New("please enter an age")
	ErrNoSex        = errors.New("please select a sex")
)

// Subject captures the metadata entered by the research assistant before a
// session starts. It is written once to the info sheet and the session store.
type Subject struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	SubNum    string    `json:"sub_num"`
	Condition string    `json:"condition"`
	Age       string    `json:"age"`
	Sex       string    `json:"sex"`
	RA        string    `json:"ra"`
	Tasks     []string  `json:"tasks"`
	Seed      uint64    `json:"seed"`
}

// Validate checks required fields in the same order the battery form does
// and returns the first failure.
func (s Subject) Validate() error {
	switch {
	case len(s.Tasks) == 0:
		return ErrNoTasks
	case strings.TrimSpace(s.RA) == "":
		return ErrNoRA
	case strings.TrimSpace(s.SubNum) == "":
		return ErrNoSubjectNum
	case strings.TrimSpace(s.Condition) == "":
		return ErrNoCondition
	case strings.ContainsAny(s.SubNum+s.Condition, `/\`):
		return ErrBadFileStem
	}
	if _, err := strconv.Atoi(strings.TrimSpace(s.Age)); err != nil {
		return ErrNoAge
	}
	if s.Sex != SexMale && s.Sex != SexFemale {
		return ErrNoSex
	}
	return nil
}

// FileStem is the base name shared by the subject's output workbook and
// archive prefix: "<sub_num>_<condition>".
func (s Subject) FileStem() string {
	return strings.TrimSpace(s.SubNum) + "_" + strings.TrimSpace(s.Condition)
}

// InfoColumns is the fixed column schema of the subject info sheet.
var InfoColumns = []string{"datetime", "sub_num", "condition", "age", "sex", "RA", "tasks", "session_id", "seed"}

// InfoTable renders the subject as the single-row info sheet.
func (s Subject) InfoTable() Table {
	age, _ := strconv.Atoi(strings.TrimSpace(s.Age))
	return Table{
		Name:    "info",
		Columns: InfoColumns,
		Rows: [][]any{{
			s.StartedAt.Format(DateTimeLayout),
			s.SubNum,
			s.Condition,
			age,
			s.Sex,
			s.RA,
			strings.Join(s.Tasks, ", "),
			s.SessionID,
			strconv.FormatUint(s.Seed, 10),
		}},
	}
}
