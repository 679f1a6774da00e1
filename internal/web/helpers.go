package web

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func utoa(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}

func esc(value string) string {
	return templ.EscapeString(value)
}

func pageURL(base string, page, perPage int) string {
	if strings.Contains(base, "?") {
		return base + "&page=" + itoa(page) + "&per_page=" + itoa(perPage)
	}
	return base + "?page=" + itoa(page) + "&per_page=" + itoa(perPage)
}

const styles = `
      body { font-family: system-ui, sans-serif; margin: 0; background: #f6f4ef; color: #1d1d1f; }
      main.shell { max-width: 880px; margin: 0 auto; padding: 24px; }
      .panel { background: #fff; border-radius: 12px; padding: 20px; margin-bottom: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
      .tag { text-transform: uppercase; letter-spacing: .08em; font-size: 12px; color: #8a5a00; }
      .row { display: flex; gap: 8px; align-items: center; flex-wrap: wrap; }
      .muted { color: #6b6b6b; }
      .error { color: #b00020; }
      button.primary { background: #1d1d1f; color: #fff; border: 0; border-radius: 8px; padding: 8px 14px; cursor: pointer; }
      button.secondary { background: #fff; border: 1px solid #1d1d1f; border-radius: 8px; padding: 8px 14px; cursor: pointer; }
      ol.board li { padding: 6px 0; border-bottom: 1px solid #eee; }
      table { width: 100%; border-collapse: collapse; }
      td, th { text-align: left; padding: 6px; border-bottom: 1px solid #eee; }
`

// page wraps body in the shared document shell.
func page(title string, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`+esc(title)+` · Top Ten</title>
    <style>`+styles+`</style>
  </head>
  <body>
    <main class="shell">
`)
		if err := body(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `
    </main>
  </body>
</html>
`)
		return err
	})
}

// apiScript is shared by the screens that talk to the JSON API.
const apiScript = `
      async function api(method, path, body) {
        const opts = { method, headers: {}, credentials: "same-origin" };
        if (body !== undefined) {
          opts.headers["Content-Type"] = "application/json";
          opts.body = JSON.stringify(body);
        }
        const res = await fetch(path, opts);
        if (res.status === 401) {
          window.location = "/login";
          return {};
        }
        const text = await res.text();
        const data = text ? JSON.parse(text) : {};
        if (!res.ok) {
          throw new Error(data.error || "Request failed.");
        }
        return data;
      }
`
