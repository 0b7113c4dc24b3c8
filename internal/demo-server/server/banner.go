package server

import (
	"fmt"
	"io"
)

// DemoPage 演示页面路径
const DemoPage = "/api-client-demo.html"

const bannerFormat = `
╔════════════════════════════════════════════════╗
║            Frontend Demo Server                ║
╚════════════════════════════════════════════════╝

Server running at: %[1]s
Serving files from: %[2]s

Available demos:
- API Client Demo: %[1]s%[3]s

To test the API integration:
1. Make sure the backend is running
2. Open the demo URL above in your browser
3. Test authentication and API calls

Press Ctrl+C to stop the server.

`

func printBanner(out io.Writer, baseURL, source string) {
	fmt.Fprintf(out, bannerFormat, baseURL, source, DemoPage)
}

func printStopped(out io.Writer) {
	fmt.Fprint(out, "\n\nServer stopped.\n")
}
