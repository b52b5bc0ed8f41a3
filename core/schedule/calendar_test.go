package schedule

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: NewTimeOfDay(0, 0)},
		{in: "09:05", want: NewTimeOfDay(9, 5)},
		{in: "23:59", want: NewTimeOfDay(23, 59)},
		{in: "10:30:00", want: NewTimeOfDay(10, 30)}, // seconds dropped
		{in: " 14:00 ", want: NewTimeOfDay(14, 0)},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "lol", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeOfDay() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseTimeOfDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeOfDay_String(t *testing.T) {
	if got := NewTimeOfDay(9, 5).String(); got != "09:05" {
		t.Errorf("String() = %s, want 09:05", got)
	}
}

func TestTimeOfDay_On(t *testing.T) {
	day := time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC)
	got := NewTimeOfDay(14, 30).On(day)
	want := time.Date(2021, 3, 10, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}
}

func TestTimeOfDay_JSON(t *testing.T) {
	data, err := json.Marshal(NewTimeOfDay(8, 15))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"08:15"` {
		t.Errorf("Marshal() = %s", data)
	}

	var tod TimeOfDay
	if err = json.Unmarshal([]byte(`"16:45"`), &tod); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if tod != NewTimeOfDay(16, 45) {
		t.Errorf("Unmarshal() = %v", tod)
	}
	if err = json.Unmarshal([]byte(`"nope"`), &tod); err == nil {
		t.Error("Unmarshal() expected error")
	}
}

func TestTimeOfDay_Scan(t *testing.T) {
	var tod TimeOfDay

	if err := tod.Scan("10:30:00"); err != nil {
		t.Fatalf("Scan(string) error = %v", err)
	}
	if tod != NewTimeOfDay(10, 30) {
		t.Errorf("Scan(string) = %v", tod)
	}

	if err := tod.Scan([]byte("07:00:00")); err != nil {
		t.Fatalf("Scan([]byte) error = %v", err)
	}
	if tod != NewTimeOfDay(7, 0) {
		t.Errorf("Scan([]byte) = %v", tod)
	}

	if err := tod.Scan(time.Date(0, 1, 1, 18, 20, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Scan(time.Time) error = %v", err)
	}
	if tod != NewTimeOfDay(18, 20) {
		t.Errorf("Scan(time.Time) = %v", tod)
	}

	if err := tod.Scan(42); err == nil {
		t.Error("Scan(int) expected error")
	}

	val, err := NewTimeOfDay(9, 30).Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if val != "09:30:00" {
		t.Errorf("Value() = %v", val)
	}
}

func TestDateOf(t *testing.T) {
	loc, _ := time.LoadLocation("Africa/Cairo")
	in := time.Date(2021, 3, 10, 18, 45, 12, 99, loc)
	got := DateOf(in)
	want := time.Date(2021, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DateOf() = %v, want %v", got, want)
	}
}

func TestSameDate(t *testing.T) {
	a := time.Date(2021, 3, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2021, 3, 10, 0, 1, 0, 0, time.UTC)
	c := time.Date(2021, 3, 11, 0, 0, 0, 0, time.UTC)
	if !SameDate(a, b) {
		t.Error("SameDate(a, b) = false")
	}
	if SameDate(a, c) {
		t.Error("SameDate(a, c) = true")
	}
}

func Test_dateIter(t *testing.T) {
	from := time.Date(2021, 3, 10, 8, 0, 0, 0, time.UTC) // time part dropped
	to := time.Date(2021, 3, 13, 0, 0, 0, 0, time.UTC)

	it := newDateIter(from, to)
	var days []time.Time
	for {
		day, ok := it.next()
		if !ok {
			break
		}
		days = append(days, day)
	}

	if len(days) != 4 {
		t.Fatalf("iterated %d days, want 4", len(days))
	}
	if !days[0].Equal(time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first day = %v", days[0])
	}
	if !days[3].Equal(to) {
		t.Errorf("last day = %v", days[3])
	}

	// empty range
	it = newDateIter(to, from)
	if _, ok := it.next(); ok {
		t.Error("next() on empty range = true")
	}

	// single day
	it = newDateIter(to, to)
	if day, ok := it.next(); !ok || !day.Equal(to) {
		t.Errorf("single-day iter = %v, %v", day, ok)
	}
	if _, ok := it.next(); ok {
		t.Error("single-day iter did not stop")
	}
}
