package web

import (
	"io"

	"github.com/a-h/templ"
)

func Login() templ.Component {
	return page("Sign in", func(w io.Writer) error {
		_, err := io.WriteString(w, `      <header class="hero">
        <span class="tag">Top Ten</span>
        <h1>Name the list before the judge does.</h1>
      </header>
      <section class="panel">
        <form id="authForm">
          <div class="row">
            <input name="email" type="email" placeholder="Email" autocomplete="email" required/>
            <input name="password" type="password" placeholder="Password" autocomplete="current-password" required/>
          </div>
          <div class="row">
            <button type="submit" class="primary" data-mode="login">Sign in</button>
            <button type="submit" class="secondary" data-mode="signup">Create account</button>
          </div>
        </form>
        <p id="authResult" class="error"></p>
      </section>
      <script>`+apiScript+`
      const form = document.getElementById("authForm");
      const result = document.getElementById("authResult");
      form.addEventListener("submit", async (event) => {
        event.preventDefault();
        const mode = event.submitter ? event.submitter.dataset.mode : "login";
        result.textContent = "";
        try {
          await api("POST", "/api/auth/" + mode, {
            email: form.elements.email.value.trim(),
            password: form.elements.password.value
          });
          window.location = "/";
        } catch (err) {
          result.textContent = err.message;
        }
      });
      </script>
`)
		return err
	})
}

func Home(data HomeData) templ.Component {
	return page("Home", func(w io.Writer) error {
		resume := ""
		if data.RoundID != "" {
			resume = `<a href="/private/play/` + esc(data.RoundID) + `"><button class="secondary">Resume round</button></a>`
		}
		_, err := io.WriteString(w, `      <header class="hero">
        <span class="tag">Top Ten</span>
        <h1>Welcome back</h1>
        <p class="muted">Signed in as `+esc(data.Email)+`</p>
      </header>
      <section class="panel">
        <h2>Play</h2>
        <div class="row">
          <a href="/private/setup"><button class="primary">New game</button></a>
          `+resume+`
          <a href="/private/simple"><button class="secondary">Random list</button></a>
        </div>
      </section>
      <section class="panel">
        <h2>Manage</h2>
        <div class="row">
          <a href="/private/admin">Lists &amp; categories</a>
          <a href="/private/scrape">Scrape import / export</a>
        </div>
        <button id="logout" class="secondary">Sign out</button>
      </section>
      <script>`+apiScript+`
      document.getElementById("logout").addEventListener("click", async () => {
        await fetch("/api/auth/logout", { method: "POST" });
        window.location = "/login";
      });
      </script>
`)
		return err
	})
}
