package entity

type CourseType string

const (
	CoursePersonal CourseType = "personal"
	CourseAcademic CourseType = "academic"
)

type Course struct {
	CourseID        int        `json:"course_id"`
	CourseName      string     `json:"course_name"`
	CourseCode      *string    `json:"course_code"`
	InstitutionID   *int       `json:"institution_id"`
	CourseType      CourseType `json:"course_type"`
	InstitutionName *string    `json:"institution_name"`
}

// NewCourse is the body of POST /api/courses.
type NewCourse struct {
	CourseName    string     `json:"course_name"`
	CourseCode    *string    `json:"course_code"`
	InstitutionID *int       `json:"institution_id"`
	CourseType    CourseType `json:"course_type"`
}

type Institution struct {
	ID                int     `json:"id"`
	InstitutionName   string  `json:"institution_name"`
	InstitutionHandle *string `json:"institution_handle"`
	Country           *string `json:"country"`
	Region            *string `json:"region"`
}

type NewInstitution struct {
	InstitutionName string `json:"institution_name"`
	Country         string `json:"country,omitempty"`
	Region          string `json:"region,omitempty"`
}

// Segment types a course-formula link can be classified under.
const (
	SegmentChapter     = "chapter"
	SegmentModule      = "module"
	SegmentExamination = "examination"
)

var SegmentTypes = []string{SegmentChapter, SegmentModule, SegmentExamination}

func ValidSegmentType(s string) bool {
	for _, t := range SegmentTypes {
		if s == t {
			return true
		}
	}
	return false
}

// CourseFormula links a formula to a course, optionally placing it in a
// chapter, module or examination.
type CourseFormula struct {
	CourseID           int     `json:"course_id"`
	CourseName         string  `json:"course_name,omitempty"`
	FormulaID          int     `json:"formula_id"`
	FormulaName        string  `json:"formula_name"`
	Latex              string  `json:"latex"`
	FormulaDescription *string `json:"formula_description"`
	SegmentType        *string `json:"segment_type"`
	SegmentLabel       *string `json:"segment_label"`
}

// Segment is the body of the link create/update calls.
type Segment struct {
	Type  *string `json:"segment_type"`
	Label *string `json:"segment_label"`
}
