// Package serialization encodes tiling records as the fixed binary blob the
// kernel launcher reads.
//
//	Frame layout (little endian):
//	  [4 bytes: Magic "TILE"]
//	  [4 bytes: Version (uint32)]
//	  [4 bytes: Flags (uint32)]
//	  [4 bytes: Payload size (uint32)]
//	  [Payload: the record, field by field, fixed width]
//	  [32 bytes: SHA-256 of everything before it]
//
// A stream is frames back to back. Writer appends frames; Reader returns
// them in order and io.EOF after the last one.
//
// Example usage:
//
//	w := serialization.NewWriter(f)
//	for _, rec := range records {
//	    if err := w.Write(rec); err != nil {
//	        return err
//	    }
//	}
//
//	r := serialization.NewReader(f)
//	recs, err := r.ReadAll()
package serialization
