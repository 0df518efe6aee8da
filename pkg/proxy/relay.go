package proxy

import (
	"io"
	"net/http"
	"strings"

	"helios-hq/mercury/pkg/upstream"
)

// relayChunkSize is the read/write granularity for streaming a winning body.
// Each chunk is flushed as soon as it is written so the client sees bytes as
// they arrive from upstream.
const relayChunkSize = 8 * 1024

// RelayWinner writes the accepted upstream response to the client: status
// verbatim, filtered headers, body streamed in flushed chunks. The winner's
// connection is released afterwards, into the keep-alive pool when the body
// was drained to EOF and closed otherwise. Returns the bytes written.
func RelayWinner(w http.ResponseWriter, winner *upstream.Accepted) (int64, error) {
	copyFilteredHeader(w.Header(), winner.Header)
	w.WriteHeader(winner.Status)

	flusher, _ := w.(http.Flusher)
	body := winner.Body()
	buf := make([]byte, relayChunkSize)

	var written int64
	var relayErr error
	drained := false
	for {
		n, err := body.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				relayErr = werr
				break
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			drained = true
			break
		}
		if err != nil {
			relayErr = err
			break
		}
	}

	winner.Release(drained)
	return written, relayErr
}

// RelayFallback writes a retained rejected upstream response to the client.
// The body was read eagerly at rejection time, so it goes out in one write.
func RelayFallback(w http.ResponseWriter, fallback *upstream.Rejected) (int64, error) {
	copyFilteredHeader(w.Header(), fallback.Header)
	w.WriteHeader(fallback.Status)
	n, err := w.Write(fallback.Body)
	return int64(n), err
}

// copyFilteredHeader copies upstream headers to the client response,
// dropping Transfer-Encoding (the relay controls its own framing) and
// keeping only the first value of multi-valued headers.
func copyFilteredHeader(dst, src http.Header) {
	for name, values := range src {
		if strings.EqualFold(name, "Transfer-Encoding") {
			continue
		}
		if len(values) > 0 {
			dst.Set(name, values[0])
		}
	}
}
