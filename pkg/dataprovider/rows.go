package dataprovider

import "strings"

// Registration is a row of the Registrations sheet.
type Registration struct {
	CaseID         string
	Title          string
	Name           string
	Email          string
	Password       string
	DateOfBirth    string // DD-MM-YYYY
	FirstName      string
	LastName       string
	Company        string
	Address1       string
	Address2       string
	Country        string
	State          string
	City           string
	Zipcode        string
	Mobile         string
	ExpectedResult string
}

// AsRegistration maps a row onto the Registrations schema.
func (r Row) AsRegistration() Registration {
	return Registration{
		CaseID:         r.Get("testCaseName"),
		Title:          r.Get("title"),
		Name:           r.Get("name"),
		Email:          r.Get("email"),
		Password:       r.Get("password"),
		DateOfBirth:    r.Get("dob"),
		FirstName:      r.Get("firstName"),
		LastName:       r.Get("lastName"),
		Company:        r.Get("company"),
		Address1:       r.Get("address1"),
		Address2:       r.Get("address2"),
		Country:        r.Get("country"),
		State:          r.Get("state"),
		City:           r.Get("city"),
		Zipcode:        r.Get("zipcode"),
		Mobile:         r.Get("mobile"),
		ExpectedResult: r.Get("expectedResult"),
	}
}

// Login is a row of the Login sheet.
type Login struct {
	CaseID         string
	Email          string
	Password       string
	ExpectedResult string
}

// AsLogin maps a row onto the Login schema.
func (r Row) AsLogin() Login {
	return Login{
		CaseID:         r.Get("testCaseName"),
		Email:          r.Get("email"),
		Password:       r.Get("password"),
		ExpectedResult: r.Get("expectedResult"),
	}
}

// Expectation is the classified expectedResult of a Login row.
type Expectation int

const (
	ExpectUnknown Expectation = iota
	ExpectSuccess
	ExpectFailure
)

func (e Expectation) String() string {
	switch e {
	case ExpectSuccess:
		return "success"
	case ExpectFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Classify maps free-text expectedResult values. Failure words take
// precedence, so "invalid login" is a failure.
func Classify(expected string) Expectation {
	v := strings.ToLower(strings.TrimSpace(expected))
	for _, w := range []string{"fail", "invalid", "error"} {
		if strings.Contains(v, w) {
			return ExpectFailure
		}
	}
	for _, w := range []string{"pass", "success", "valid"} {
		if strings.Contains(v, w) {
			return ExpectSuccess
		}
	}
	return ExpectUnknown
}
