package hermes

const (
	SubjectAnalysisWildcard = "strategix.analysis.>"
	SubjectAdvisoryWildcard = "strategix.advisory.>"

	StreamName   = "STRATEGIX_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectAnalysisCompleted(analysisID string) string {
	return "strategix.analysis." + analysisID + ".completed"
}

func SubjectAnalysisFailed(analysisID string) string {
	return "strategix.analysis." + analysisID + ".failed"
}

func SubjectAdvisoryGenerated(analysisID string) string {
	return "strategix.advisory." + analysisID + ".generated"
}
