package roster

// Material modes
const (
	ModeNormal    = "normal"
	ModeSelfStudy = "self_study"
)

type Class struct {
	ID        string `json:"id"`
	Year      int    `json:"year"`
	ClassCode string `json:"class_code"`
	Name      string `json:"name"`
}

type Student struct {
	ID          string `json:"id"`
	ClassID     string `json:"class_id"`
	Number      int    `json:"number"`
	DisplayName string `json:"display_name"`
}

type Material struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	PointsPerSubmit int    `json:"points_per_submit"`
	Mode            string `json:"mode"`
	IsActive        bool   `json:"is_active"`
}

func (m Material) IsSelfStudy() bool {
	return m.Mode == ModeSelfStudy
}
