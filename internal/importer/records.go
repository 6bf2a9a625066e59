// Package importer drives fetch, resolve and reconcile across external
// record batches and aggregates per-record outcomes.
//
// External payloads are loosely typed; everything is parsed and validated
// here at the fetch boundary so the reconciler only ever sees typed records.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/txtalert/platform/internal/visits"
)

// Category enumerates the visit batches the remote case-management API
// serves, in the order they must be imported. The order matters: a "coming"
// record may create the visit that a "missed" or "done" record of the same
// run then closes.
type Category int

const (
	CategoryComing Category = iota + 1
	CategoryMissed
	CategoryDone
)

// Categories lists all visit categories in import order.
var Categories = []Category{CategoryComing, CategoryMissed, CategoryDone}

func (c Category) String() string {
	switch c {
	case CategoryComing:
		return "coming"
	case CategoryMissed:
		return "missed"
	case CategoryDone:
		return "done"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// DefaultStatus is the status implied by the category when a record carries
// no explicit Status field.
func (c Category) DefaultStatus() visits.Status {
	switch c {
	case CategoryMissed:
		return visits.StatusMissed
	case CategoryDone:
		return visits.StatusAttended
	default:
		return visits.StatusScheduled
	}
}

// rawVisitRecord mirrors the wire shape of one visit row from the remote API.
type rawVisitRecord struct {
	PtdNo        string  `json:"Ptd_No"`
	Visit        float64 `json:"Visit"`
	VisitDate    string  `json:"Visit_date"`
	ReturnDate   string  `json:"Return_date"`
	NextTCB      string  `json:"Next_tcb"`
	Status       string  `json:"Status"`
	FileNo       string  `json:"File_No"`
	Cellphone    string  `json:"Cellphone_number"`
	FacilityName string  `json:"Facility_name"`
}

// VisitRecord is a validated visit row. Zero dates mean the field was absent.
type VisitRecord struct {
	TeID      string
	FileNo    string
	Cellphone string
	Facility  string
	Sequence  int
	VisitDate time.Time
	// ReturnDate is the date the status update refers to; it takes precedence
	// over VisitDate for missed/done records.
	ReturnDate time.Time
	// NextTCB is the reported follow-up ("next to come back") date.
	NextTCB time.Time
	Status  visits.Status
}

// IncomingDate picks the date the reconciler should use for this record.
// Coming records schedule the visit itself, so they require Visit_date;
// missed/done records refer to the appointment via Return_date, falling back
// to Visit_date.
func (r VisitRecord) IncomingDate(c Category) (time.Time, bool) {
	if c == CategoryComing {
		return r.VisitDate, !r.VisitDate.IsZero()
	}
	if !r.ReturnDate.IsZero() {
		return r.ReturnDate, true
	}
	return r.VisitDate, !r.VisitDate.IsZero()
}

func (raw rawVisitRecord) parse(c Category) (VisitRecord, error) {
	rec := VisitRecord{
		TeID:      strings.TrimSpace(raw.PtdNo),
		FileNo:    strings.TrimSpace(raw.FileNo),
		Cellphone: strings.TrimSpace(raw.Cellphone),
		Facility:  strings.TrimSpace(raw.FacilityName),
		Sequence:  int(raw.Visit),
	}
	if rec.TeID == "" {
		return rec, fmt.Errorf("missing Ptd_No")
	}

	var err error
	if rec.VisitDate, err = parseDate(raw.VisitDate); err != nil {
		return rec, fmt.Errorf("Visit_date: %w", err)
	}
	if rec.ReturnDate, err = parseDate(raw.ReturnDate); err != nil {
		return rec, fmt.Errorf("Return_date: %w", err)
	}
	if rec.NextTCB, err = parseDate(raw.NextTCB); err != nil {
		return rec, fmt.Errorf("Next_tcb: %w", err)
	}
	if rec.Status, err = parseStatusCode(raw.Status, c); err != nil {
		return rec, err
	}
	return rec, nil
}

var dateLayouts = []string{"2006-01-02T15:04:05", time.DateOnly}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return visits.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseStatusCode maps the API's status letters onto visit statuses. An empty
// status means the category's default. "AE" is the source's attended-early
// variant of "A".
func parseStatusCode(s string, c Category) (visits.Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return c.DefaultStatus(), nil
	case "A", "AE":
		return visits.StatusAttended, nil
	case "M":
		return visits.StatusMissed, nil
	case "R":
		return visits.StatusRescheduled, nil
	case "S":
		return visits.StatusScheduled, nil
	default:
		return "", fmt.Errorf("unknown status code %q", s)
	}
}

// ParseStatusWord maps the spreadsheet's long-form status words onto visit
// statuses.
func ParseStatusWord(s string) (visits.Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scheduled":
		return visits.StatusScheduled, true
	case "rescheduled":
		return visits.StatusRescheduled, true
	case "attended":
		return visits.StatusAttended, true
	case "missed":
		return visits.StatusMissed, true
	default:
		return "", false
	}
}

// rawFacilityPatients mirrors the wire shape of one facility group in the
// patient payload.
type rawFacilityPatients struct {
	FacilityName string             `json:"Facility_name"`
	Patients     []rawPatientRecord `json:"Patients"`
}

type rawPatientRecord struct {
	PtdNo     string `json:"Ptd_No"`
	FileNo    string `json:"File_No"`
	Cellphone string `json:"Cellphone_number"`
}

// FacilityPatients groups validated patient records under their facility.
type FacilityPatients struct {
	Facility string
	Patients []PatientRecord
}

// PatientRecord is one validated patient row.
type PatientRecord struct {
	TeID      string
	FileNo    string
	Cellphone string
}

// rawWorksheet mirrors the wire shape of one sheet in the worksheet payload.
type rawWorksheet struct {
	Name string              `json:"name"`
	Rows []rawAppointmentRow `json:"rows"`
}

type rawAppointmentRow struct {
	Row    int    `json:"row"`
	FileNo string `json:"file_no"`
	Phone  string `json:"phone"`
	Date   string `json:"appointment_date"`
	Status string `json:"status"`
}

func (raw rawAppointmentRow) parse() (AppointmentRow, error) {
	row := AppointmentRow{
		Row:    raw.Row,
		FileNo: strings.TrimSpace(raw.FileNo),
		Phone:  strings.TrimSpace(raw.Phone),
	}
	if row.Row <= 0 {
		return AppointmentRow{}, fmt.Errorf("row number %d out of range", raw.Row)
	}
	if row.FileNo == "" {
		return AppointmentRow{}, errors.New("missing file_no")
	}
	date, err := parseDate(raw.Date)
	if err != nil {
		return AppointmentRow{}, fmt.Errorf("appointment_date: %w", err)
	}
	if date.IsZero() {
		return AppointmentRow{}, errors.New("missing appointment_date")
	}
	row.Date = date

	status, ok := ParseStatusWord(raw.Status)
	if !ok {
		return AppointmentRow{}, fmt.Errorf("unknown status %q", raw.Status)
	}
	row.Status = status
	return row, nil
}

func (raw rawFacilityPatients) parse() FacilityPatients {
	group := FacilityPatients{
		Facility: strings.TrimSpace(raw.FacilityName),
		Patients: make([]PatientRecord, 0, len(raw.Patients)),
	}
	for _, p := range raw.Patients {
		group.Patients = append(group.Patients, PatientRecord{
			TeID:      strings.TrimSpace(p.PtdNo),
			FileNo:    strings.TrimSpace(p.FileNo),
			Cellphone: strings.TrimSpace(p.Cellphone),
		})
	}
	return group
}
