package web

import (
	"io"
	"strings"

	"top-ten/internal/catalog"

	"github.com/a-h/templ"
)

func Setup(minPlayers, maxPlayers int) templ.Component {
	return page("New game", func(w io.Writer) error {
		_, err := io.WriteString(w, `      <section class="panel">
        <h1>Who is playing?</h1>
        <p class="muted">Between `+itoa(minPlayers)+` and `+itoa(maxPlayers)+` players. Pick one judge for the first round.</p>
        <form id="setupForm">
          <input name="group" placeholder="Group name (optional)"/>
          <div id="players"></div>
          <div class="row">
            <button type="button" id="addPlayer" class="secondary">Add player</button>
            <button type="submit" class="primary">Start</button>
          </div>
        </form>
        <p id="setupResult" class="error"></p>
      </section>
      <script>`+apiScript+`
      const players = document.getElementById("players");
      const result = document.getElementById("setupResult");
      function addRow() {
        const row = document.createElement("div");
        row.className = "row";
        row.innerHTML = '<input name="player" placeholder="Player name"/>' +
          '<label><input type="radio" name="judge"/> Judge</label>';
        players.appendChild(row);
      }
      for (let i = 0; i < `+itoa(minPlayers)+`; i++) addRow();
      document.getElementById("addPlayer").addEventListener("click", addRow);
      document.getElementById("setupForm").addEventListener("submit", async (event) => {
        event.preventDefault();
        const rows = Array.from(players.children);
        const body = {
          name: event.target.elements.group.value.trim(),
          players: rows.map((row) => ({
            name: row.querySelector('input[name="player"]').value.trim(),
            is_judge: row.querySelector('input[name="judge"]').checked
          }))
        };
        try {
          await api("POST", "/api/groups", body);
          window.location = "/private/categories";
        } catch (err) {
          result.textContent = err.message;
        }
      });
      </script>
`)
		return err
	})
}

func Categories(data CategoryCarouselData) templ.Component {
	return page("Categories", func(w io.Writer) error {
		if data.Count == 0 {
			_, err := io.WriteString(w, `      <section class="panel"><p>No categories yet. <a href="/private/admin">Add one</a>.</p></section>
`)
			return err
		}
		prev := `<button id="prev" class="secondary">Previous</button>`
		if !data.HasPrev {
			prev = `<button id="prev" class="secondary" disabled>Previous</button>`
		}
		next := `<button id="next" class="secondary">Next</button>`
		if !data.HasNext {
			next = `<button id="next" class="secondary" disabled>Next</button>`
		}
		_, err := io.WriteString(w, `      <section class="panel">
        <span class="tag">Category `+itoa(data.Index+1)+` of `+itoa(data.Count)+`</span>
        <h1>`+esc(data.Category.Icon)+` `+esc(data.Category.Name)+`</h1>
        <p class="muted">`+esc(data.Category.Description)+`</p>
        <p>`+itoa(data.Category.ListCount)+` lists</p>
        <div class="row">
          `+prev+`
          <a href="/private/categories/`+utoa(data.Category.ID)+`"><button class="primary">Choose</button></a>
          `+next+`
        </div>
      </section>
      <script>`+apiScript+`
      for (const dir of ["prev", "next"]) {
        document.getElementById(dir).addEventListener("click", async () => {
          await api("POST", "/api/categories/" + dir);
          window.location.reload();
        });
      }
      </script>
`)
		return err
	})
}

func CategoryLists(data CategoryListsData) templ.Component {
	return page(data.Category.Name, func(w io.Writer) error {
		var rows strings.Builder
		for _, list := range data.Lists {
			rows.WriteString(`<li><button class="secondary" data-list="` + utoa(list.ID) + `">` + esc(list.Title) + `</button>`)
			if list.Year > 0 {
				rows.WriteString(` <span class="muted">` + itoa(list.Year) + `</span>`)
			}
			rows.WriteString("</li>\n")
		}
		if len(data.Lists) == 0 {
			rows.WriteString(`<li class="muted">No lists in this category yet.</li>`)
		}
		_, err := io.WriteString(w, `      <section class="panel">
        <a href="/private/categories">Back to categories</a>
        <h1>`+esc(data.Category.Icon)+` `+esc(data.Category.Name)+`</h1>
        <ul>
`+rows.String()+`        </ul>
        <p id="listResult" class="error"></p>
      </section>
      <script>`+apiScript+`
      const roundID = "`+esc(data.RoundID)+`";
      const result = document.getElementById("listResult");
      document.querySelectorAll("[data-list]").forEach((button) => {
        button.addEventListener("click", async () => {
          if (!roundID) {
            window.location = "/private/setup";
            return;
          }
          try {
            await api("POST", "/api/rounds/" + roundID + "/list", { list_id: Number(button.dataset.list) });
            window.location = "/private/play/" + roundID;
          } catch (err) {
            result.textContent = err.message;
          }
        });
      });
      </script>
`)
		return err
	})
}

// Play is the judge's gameplay board with the scoreboard panel.
func Play(roundID string) templ.Component {
	return page("Play", func(w io.Writer) error {
		_, err := io.WriteString(w, `      <section class="panel">
        <span class="tag" id="roundLabel">Round</span>
        <h1 id="listTitle">Loading...</h1>
        <div class="row" id="controls"></div>
        <p id="playResult" class="error"></p>
      </section>
      <section class="panel">
        <h2>The list</h2>
        <ol class="board" id="items"></ol>
      </section>
      <section class="panel">
        <h2>Scoreboard</h2>
        <table><tbody id="scores"></tbody></table>
        <p><img src="/api/rounds/`+esc(roundID)+`/qr" alt="Board QR code" width="160" height="160"/></p>
      </section>
      <script>`+apiScript+`
      const roundID = "`+esc(roundID)+`";
      const result = document.getElementById("playResult");
      let selectedPlayer = 0;

      function render(round) {
        document.getElementById("roundLabel").textContent = "Round " + round.round_number + " · " + round.status;
        document.getElementById("listTitle").textContent = round.list_title || "No list chosen yet";
        const controls = document.getElementById("controls");
        controls.innerHTML = "";
        if (round.status === "setup") {
          if (!round.list_id) {
            controls.innerHTML = '<a href="/private/categories"><button class="primary">Choose a list</button></a>';
          } else {
            controls.innerHTML = '<select id="draft"><option value="serpentine">Serpentine draft</option>' +
              '<option value="fixed">Fixed draft</option></select> <button id="start" class="primary">Start game</button>';
            document.getElementById("start").onclick = () => act("start", { draft_type: document.getElementById("draft").value });
          }
        }
        if (round.status === "completed") {
          controls.innerHTML = '<button id="nextRound" class="primary">Start new round</button>';
          document.getElementById("nextRound").onclick = async () => {
            const next = await api("POST", "/api/rounds/" + roundID + "/next");
            window.location = "/private/play/" + next.round_id;
          };
        }
        const items = document.getElementById("items");
        items.innerHTML = "";
        for (const item of round.items) {
          const li = document.createElement("li");
          li.textContent = "#" + item.rank + " " + (item.name || "???");
          if (item.guessed) {
            li.textContent += " - " + item.player_name;
          } else if (round.status === "playing") {
            const btn = document.createElement("button");
            btn.className = "secondary";
            btn.textContent = "Guessed";
            btn.onclick = () => {
              if (!selectedPlayer) {
                result.textContent = "Select a player first.";
                return;
              }
              act("guesses", { item_id: item.id, player_id: selectedPlayer });
            };
            li.appendChild(btn);
          }
          items.appendChild(li);
        }
        const scores = document.getElementById("scores");
        scores.innerHTML = "";
        for (const player of round.players) {
          const tr = document.createElement("tr");
          const label = player.name + (player.is_judge ? " (judge)" : "") + (player.is_winner ? " 🏆" : "");
          tr.innerHTML = "<td></td><td>" + player.score + "</td>";
          tr.firstChild.textContent = label;
          if (!player.is_judge && round.status === "playing") {
            tr.style.cursor = "pointer";
            if (player.id === selectedPlayer) tr.style.background = "#fff3d6";
            tr.onclick = () => { selectedPlayer = player.id; render(round); };
          }
          scores.appendChild(tr);
        }
      }

      async function act(action, body) {
        result.textContent = "";
        try {
          render(await api("POST", "/api/rounds/" + roundID + "/" + action, body));
        } catch (err) {
          result.textContent = err.message;
        }
      }

      api("GET", "/api/rounds/" + roundID).then(render).catch((err) => { result.textContent = err.message; });
      </script>
`)
		return err
	})
}

// Board is the public, read-only view of a round kept live over a websocket.
func Board(roundID string) templ.Component {
	return page("Board", func(w io.Writer) error {
		_, err := io.WriteString(w, `      <section class="panel">
        <span class="tag" id="roundLabel">Round</span>
        <h1 id="listTitle">Waiting for the judge...</h1>
        <ol class="board" id="items"></ol>
      </section>
      <section class="panel">
        <h2>Scores</h2>
        <table><tbody id="scores"></tbody></table>
      </section>
      <script>
      const scheme = window.location.protocol === "https:" ? "wss://" : "ws://";
      const ws = new WebSocket(scheme + window.location.host + "/ws/rounds/`+esc(roundID)+`");
      ws.onmessage = (event) => {
        const round = JSON.parse(event.data);
        document.getElementById("roundLabel").textContent = "Round " + round.round_number + " · " + round.status;
        document.getElementById("listTitle").textContent = round.list_title || "Waiting for the judge...";
        const items = document.getElementById("items");
        items.innerHTML = "";
        for (const item of round.items) {
          const li = document.createElement("li");
          li.textContent = "#" + item.rank + " " + (item.guessed ? item.name + " - " + item.player_name : "???");
          items.appendChild(li);
        }
        const scores = document.getElementById("scores");
        scores.innerHTML = "";
        for (const player of round.standings) {
          const tr = document.createElement("tr");
          tr.innerHTML = "<td></td><td>" + player.score + "</td>";
          tr.firstChild.textContent = player.name;
          scores.appendChild(tr);
        }
      };
      </script>
`)
		return err
	})
}

// Simple shows one random list with its answers, for play without scoring.
func Simple(list catalog.List) templ.Component {
	return page("Random list", func(w io.Writer) error {
		var rows strings.Builder
		for _, item := range list.Items {
			rows.WriteString(`<li><details><summary>#` + itoa(item.Rank) + `</summary>` + esc(item.Name))
			if item.Statistic != "" {
				rows.WriteString(` <span class="muted">` + esc(item.Statistic) + `</span>`)
			}
			rows.WriteString("</details></li>\n")
		}
		_, err := io.WriteString(w, `      <section class="panel">
        <span class="tag">`+esc(list.CategoryName)+`</span>
        <h1>`+esc(list.Title)+`</h1>
        <ol class="board">
`+rows.String()+`        </ol>
        <a href="/private/simple"><button class="primary">Another list</button></a>
      </section>
`)
		return err
	})
}
