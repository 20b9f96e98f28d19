package passivation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the business constants the decision engine matches on. The
// defaults mirror the production configuration; a YAML file can override
// individual fields when names change upstream.
type Rules struct {
	ProcessName      string `yaml:"process_name"`
	ReportID         string `yaml:"report_id"`
	ActivityListName string `yaml:"activity_list_name"`
	// TaskName is the activity type that triggers passivation.
	TaskName string `yaml:"task_name"`

	// RootCase is the root case path every youth case lives under.
	RootCase string `yaml:"root_case"`
	// CompensationPathway is the single pathway handled by the
	// compensation-case evaluation; every other pathway is a social case.
	CompensationPathway string `yaml:"compensation_pathway"`
	// InterventionsFolder is the sub-path holding a pathway's grants.
	InterventionsFolder string `yaml:"interventions_folder"`

	BlockTaskType  string `yaml:"block_task_type"`
	BlockTaskTitle string `yaml:"block_task_title"`

	// CompensationCleanupRelation is the single organizational relation
	// removed when the compensation pathway closes.
	CompensationCleanupRelation string `yaml:"compensation_cleanup_relation"`
	// SocialCleanupOrganizations are the organization names whose relations
	// are removed when a social-case pathway closes.
	SocialCleanupOrganizations []string `yaml:"social_cleanup_organizations"`
}

func DefaultRules() Rules {
	return Rules{
		ProcessName:         "Passivering af ungesager",
		ReportID:            "passivering_af_ungesager",
		ActivityListName:    "Opgaver til Tyra",
		TaskName:            "Luk sag - Tyra",
		RootCase:            "Børn og Unge Grundforløb",
		CompensationPathway: "Sag: Støtte til børn og unge med funktionsnedsættelse",
		InterventionsFolder: "Indsatser",
		BlockTaskType:       "BL - Passivering ikke muligt pga. aktiv indsats",
		BlockTaskTitle:      "Passivering ikke mulig - Aktiv indsats",

		CompensationCleanupRelation: "Ungerådgivningen Special - Kompensation",
		SocialCleanupOrganizations: []string{
			"Ungerådgivningen Social 1 - Rådgivere Børn",
			"Ungerådgivningen Social 2 - Rådgivere Børn",
			"Ungerådgivningen Special - Rådgivere Børn",
			"Ungerådgivningen Ungeindsats - Rådgivere Børn",
		},
	}
}

// LoadRules returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return rules, nil
}
