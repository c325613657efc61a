package engine

import "csvcert/pkg/contracts/domain"

// Aggregate merges the per-row pass and the duplicate pass into the final
// report. Duplicate findings are appended after a row's field errors, never
// replacing them, and validity is recomputed from the merged list. Field
// errors are tallied by exact message; duplicate findings by their category
// label, so the histogram stays readable while per-row messages keep the
// offending values.
func Aggregate(results []domain.RowResult, dups *Duplicates) *domain.ValidationReport {
	report := &domain.ValidationReport{
		TotalRows:   len(results),
		ErrorCounts: make(map[string]int),
		Results:     make([]domain.RowResult, len(results)),
	}

	for i, result := range results {
		merged := result
		for _, msg := range result.Errors {
			report.ErrorCounts[msg]++
		}

		if dups != nil {
			if findings := dups.ByRow[result.Row]; len(findings) > 0 {
				merged.Errors = append([]string(nil), result.Errors...)
				for _, f := range findings {
					merged.Errors = append(merged.Errors, f.Message)
					report.ErrorCounts[f.Category]++
				}
			}
		}

		merged.Valid = len(merged.Errors) == 0
		if merged.Valid {
			report.ValidRows++
		} else {
			report.InvalidRows++
		}
		report.Results[i] = merged
	}

	if dups != nil {
		report.DuplicateEmailCount = dups.DistinctValues["email"]
		report.DuplicateUsernameCount = dups.DistinctValues["username"]
		report.DuplicatePersonalIDCount = dups.DistinctValues["personalid"]
		report.DuplicateIDCardNoCount = dups.DistinctValues["idcardno"]
	}

	return report
}
