// Package sawmill classifies application-server logs. It recognizes
// WebLogic, Liferay and Java header lines, folds stack traces and
// "Caused by:" lines into the entry they belong to, and reports exceptions,
// errors and warnings both as flat lists and grouped by signature.
//
// Quick start:
//
//	s, err := sawmill.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := s.AnalyzeReader(f) // plain or gzip
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Summary.TotalExceptions)
//	sawmill.WriteCSV(os.Stdout, report, false)
//
// A Sawmill holds no per-call state and is safe for concurrent use.
package sawmill
