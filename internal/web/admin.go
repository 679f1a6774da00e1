package web

import (
	"io"
	"strings"

	"top-ten/internal/catalog"

	"github.com/a-h/templ"
)

func Admin(data AdminData) templ.Component {
	return page("Admin", func(w io.Writer) error {
		var categories strings.Builder
		var options strings.Builder
		for _, category := range data.Categories {
			categories.WriteString(`<tr><td>` + esc(category.Icon) + `</td><td><a href="/private/admin?category_id=` + utoa(category.ID) + `">` +
				esc(category.Name) + `</a></td><td>` + itoa(category.ListCount) + `</td>` +
				`<td><button class="secondary" data-delete-category="` + utoa(category.ID) + `">Delete</button></td></tr>` + "\n")
			selected := ""
			if category.ID == data.CategoryID {
				selected = " selected"
			}
			options.WriteString(`<option value="` + utoa(category.ID) + `"` + selected + `>` + esc(category.Name) + `</option>`)
		}
		var lists strings.Builder
		for _, list := range data.Lists {
			filled := "empty"
			if list.HasItems() {
				filled = "filled"
			}
			lists.WriteString(`<tr><td><a href="/private/admin/lists/` + utoa(list.ID) + `">` + esc(list.Title) + `</a></td><td>` +
				esc(list.CategoryName) + `</td><td>` + filled + `</td>` +
				`<td><button class="secondary" data-delete-list="` + utoa(list.ID) + `">Delete</button></td></tr>` + "\n")
		}
		pager := ""
		if data.Pagination.HasPrev {
			pager += `<a href="` + esc(pageURL(data.Pagination.BasePath, data.Pagination.PrevPage, data.Pagination.PerPage)) + `">Previous</a> `
		}
		pager += `<span class="muted">Page ` + itoa(data.Pagination.Page) + ` of ` + itoa(data.Pagination.TotalPages) + `</span>`
		if data.Pagination.HasNext {
			pager += ` <a href="` + esc(pageURL(data.Pagination.BasePath, data.Pagination.NextPage, data.Pagination.PerPage)) + `">Next</a>`
		}
		_, err := io.WriteString(w, `      <section class="panel">
        <h1>Categories</h1>
        <table><tbody>
`+categories.String()+`        </tbody></table>
        <form id="categoryForm" class="row">
          <input name="icon" placeholder="Icon" size="4"/>
          <input name="name" placeholder="Category name"/>
          <input name="description" placeholder="Description"/>
          <button type="submit" class="primary">Add category</button>
        </form>
      </section>
      <section class="panel">
        <h1>Lists</h1>
        <table><tbody>
`+lists.String()+`        </tbody></table>
        <p>`+pager+`</p>
        <form id="listForm" class="row">
          <select name="category">`+options.String()+`</select>
          <input name="title" placeholder="List title"/>
          <input name="source_url" placeholder="Source URL"/>
          <input name="year" placeholder="Year" size="6"/>
          <button type="submit" class="primary">Add list</button>
        </form>
        <p id="adminResult" class="error"></p>
      </section>
      <script>`+apiScript+`
      const result = document.getElementById("adminResult");
      async function run(fn) {
        result.textContent = "";
        try {
          await fn();
          window.location.reload();
        } catch (err) {
          result.textContent = err.message;
        }
      }
      document.getElementById("categoryForm").addEventListener("submit", (event) => {
        event.preventDefault();
        const f = event.target.elements;
        run(() => api("POST", "/api/admin/categories", { name: f.name.value, icon: f.icon.value, description: f.description.value }));
      });
      document.getElementById("listForm").addEventListener("submit", (event) => {
        event.preventDefault();
        const f = event.target.elements;
        run(() => api("POST", "/api/admin/lists", {
          category_id: Number(f.category.value),
          title: f.title.value,
          source_url: f.source_url.value,
          year: Number(f.year.value) || 0
        }));
      });
      document.querySelectorAll("[data-delete-category]").forEach((button) => {
        button.addEventListener("click", () => run(() => api("DELETE", "/api/admin/categories/" + button.dataset.deleteCategory)));
      });
      document.querySelectorAll("[data-delete-list]").forEach((button) => {
        button.addEventListener("click", () => run(() => api("DELETE", "/api/admin/lists/" + button.dataset.deleteList)));
      });
      </script>
`)
		return err
	})
}

// AdminList edits the ranked items of one list.
func AdminList(list catalog.List) templ.Component {
	return page(list.Title, func(w io.Writer) error {
		var rows strings.Builder
		for _, item := range list.Items {
			rows.WriteString(`<tr data-item="` + utoa(item.ID) + `"><td>#<input name="rank" value="` + itoa(item.Rank) + `" size="3"/></td>` +
				`<td><input name="name" value="` + esc(item.Name) + `"/></td>` +
				`<td><input name="details" value="` + esc(item.Details) + `"/></td>` +
				`<td><input name="statistic" value="` + esc(item.Statistic) + `"/></td></tr>` + "\n")
		}
		_, err := io.WriteString(w, `      <section class="panel">
        <a href="/private/admin">Back to admin</a>
        <h1>`+esc(list.Title)+`</h1>
        <p class="muted">`+esc(list.CategoryName)+` `+esc(list.SourceURL)+`</p>
        <table><tbody id="items">
`+rows.String()+`        </tbody></table>
        <div class="row">
          <button id="addItem" class="secondary">Add item</button>
          <button id="saveAll" class="primary">Save all</button>
        </div>
        <p id="itemResult" class="error"></p>
      </section>
      <script>`+apiScript+`
      const listID = `+utoa(list.ID)+`;
      const result = document.getElementById("itemResult");
      document.getElementById("addItem").addEventListener("click", async () => {
        const name = window.prompt("Item name");
        if (name === null) return;
        try {
          await api("POST", "/api/admin/lists/" + listID + "/items", { name });
          window.location.reload();
        } catch (err) {
          result.textContent = err.message;
        }
      });
      document.getElementById("saveAll").addEventListener("click", async () => {
        const items = Array.from(document.querySelectorAll("[data-item]")).map((row) => ({
          id: Number(row.dataset.item),
          rank: Number(row.querySelector('[name="rank"]').value),
          name: row.querySelector('[name="name"]').value,
          details: row.querySelector('[name="details"]').value,
          statistic: row.querySelector('[name="statistic"]').value
        }));
        try {
          await api("PUT", "/api/admin/lists/" + listID + "/items", { items });
          result.textContent = "Saved.";
        } catch (err) {
          result.textContent = err.message;
        }
      });
      </script>
`)
		return err
	})
}

func Scrape(data ScrapeData) templ.Component {
	return page("Scrape", func(w io.Writer) error {
		var options strings.Builder
		options.WriteString(`<option value="">All categories</option>`)
		for _, category := range data.Categories {
			options.WriteString(`<option value="` + utoa(category.ID) + `">` + esc(category.Name) + `</option>`)
		}
		publish := ""
		if data.CanPublish {
			publish = `<button id="publish" class="secondary">Publish to bucket</button>`
		}
		_, err := io.WriteString(w, `      <section class="panel">
        <h1>Export lists to scrape</h1>
        <p class="muted">`+itoa(data.PendingLists)+` lists have no items yet.</p>
        <div class="row">
          <select id="category">`+options.String()+`</select>
          <label><input type="checkbox" id="includeFilled"/> Include filled lists</label>
          <button id="download" class="primary">Download</button>
          `+publish+`
        </div>
      </section>
      <section class="panel">
        <h1>Import scraped items</h1>
        <input type="file" id="importFile" accept="application/json"/>
        <button id="import" class="primary">Import</button>
      </section>
      <p id="scrapeResult"></p>
      <script>`+apiScript+`
      const result = document.getElementById("scrapeResult");
      function exportQuery() {
        const params = new URLSearchParams();
        const category = document.getElementById("category").value;
        if (category) params.set("category_id", category);
        if (document.getElementById("includeFilled").checked) params.set("include_filled", "true");
        return params.toString();
      }
      document.getElementById("download").addEventListener("click", () => {
        window.location = "/api/admin/scrape/export?" + exportQuery();
      });
      const publish = document.getElementById("publish");
      if (publish) {
        publish.addEventListener("click", async () => {
          try {
            const data = await api("POST", "/api/admin/scrape/publish?" + exportQuery());
            result.textContent = "Published " + data.key;
          } catch (err) {
            result.textContent = err.message;
          }
        });
      }
      document.getElementById("import").addEventListener("click", async () => {
        const file = document.getElementById("importFile").files[0];
        if (!file) {
          result.textContent = "Choose a file first.";
          return;
        }
        try {
          const data = await api("POST", "/api/admin/scrape/import", JSON.parse(await file.text()));
          result.textContent = data.message;
        } catch (err) {
          result.textContent = err.message;
        }
      });
      </script>
`)
		return err
	})
}
