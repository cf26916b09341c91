package model

type VerificationResult struct {
	ResultID      string `gorm:"column:result_id;type:text;primaryKey"`
	ProjectName   string `gorm:"column:project_name;type:text;not null;index:idx_results_project_issue"`
	IssueNumber   int64  `gorm:"column:issue_number;not null;index:idx_results_project_issue"`
	Status        string `gorm:"column:status;type:text;not null"`
	BuildSuccess  bool   `gorm:"column:build_success;not null;default:0"`
	TestsPassed   bool   `gorm:"column:tests_passed;not null;default:0"`
	MocksDetected bool   `gorm:"column:mocks_detected;not null;default:0"`
	BuildOutput   string `gorm:"column:build_output;type:text;not null"`
	BuildError    string `gorm:"column:build_error;type:text;not null"`
	TestOutput    string `gorm:"column:test_output;type:text;not null"`
	TestError     string `gorm:"column:test_error;type:text;not null"`
	MockFilesJSON string `gorm:"column:mock_files_json;type:text;not null"`
	MockCount     int    `gorm:"column:mock_count;not null;default:0"`
	Summary       string `gorm:"column:summary;type:text;not null"`
	CreatedAt     string `gorm:"column:created_at;type:text;not null;index"`
}

func (VerificationResult) TableName() string {
	return "verification_results"
}
