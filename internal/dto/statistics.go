package dto

// StatisticsChart carries ECharts option objects for a class's results.
type StatisticsChart struct {
	FormID       string                 `json:"form_id"`
	ClassID      string                 `json:"class_id"`
	Distribution map[string]interface{} `json:"grade_distribution"`
	ItemAverages map[string]interface{} `json:"item_averages"`
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
