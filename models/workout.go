package models

// Form field names accepted by POST /generate.
const (
	FieldName       = "name"
	FieldAge        = "age"
	FieldGender     = "gender"
	FieldGoal       = "goal"
	FieldExperience = "experience"
	FieldEquipment  = "equipment"
)

// Defaults used when a field is missing from the form entirely.
const (
	DefaultName       = "User"
	DefaultAge        = "unknown"
	DefaultGender     = "not specified"
	DefaultGoal       = "general fitness"
	DefaultExperience = "beginner"
	DefaultEquipment  = "none"
)

// WorkoutRequest holds the user's fitness parameters. Values are free text and
// are never validated.
type WorkoutRequest struct {
	Name       string
	Age        string
	Gender     string
	Goal       string
	Experience string
	Equipment  string
}

// FormLookup matches gin.Context.GetPostForm: the value and whether the key
// was present at all.
type FormLookup func(key string) (string, bool)

// NewWorkoutRequest reads each field through lookup, substituting the default
// only for keys that are absent. A present but empty value is kept.
func NewWorkoutRequest(lookup FormLookup) WorkoutRequest {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return def
	}
	return WorkoutRequest{
		Name:       get(FieldName, DefaultName),
		Age:        get(FieldAge, DefaultAge),
		Gender:     get(FieldGender, DefaultGender),
		Goal:       get(FieldGoal, DefaultGoal),
		Experience: get(FieldExperience, DefaultExperience),
		Equipment:  get(FieldEquipment, DefaultEquipment),
	}
}
