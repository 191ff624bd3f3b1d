// Package files locates raw data exports and validates the files and
// directories a pipeline run reads from and writes to.
//
// Discovery resolves a file or directory argument to a single CSV export,
// choosing the most recently modified file of a directory. FileValidator
// rejects missing, empty, oversized or non-CSV inputs and unwritable output
// directories before any work starts.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	input, err := discovery.ResolveInput("exports")
//	if err != nil {
//	    return err
//	}
//	if err := files.NewFileValidator(logger).ValidateCSVFile(input); err != nil {
//	    return err
//	}
package files
