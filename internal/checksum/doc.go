// Package checksum computes and compares SHA-256 digests of source archives.
//
// A formula pins its source archive with a hex-encoded SHA-256 digest. The
// fetcher streams every downloaded archive through the calculator and
// rejects it unless the digest matches byte for byte.
//
// # Example Usage
//
//	calculator := checksum.New()
//	sum, err := calculator.CalculateFile(archivePath)
//	if err != nil {
//	    return err
//	}
//	if !checksum.Equal(formula.SHA256, sum) {
//	    return &brewkit.ChecksumError{URL: formula.URL, Expected: formula.SHA256, Actual: sum}
//	}
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
