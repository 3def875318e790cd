package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/matrix-org/util"
)

// resource is one read-only collection of the fake-data API. Writes are answered as if they succeeded but
// never change the collection, which is how the public service behaves too.
type resource struct {
	items  []map[string]interface{}
	parent string
	// parentKey is the field naming the owning item, e.g. "userId" for posts.
	parentKey string
}

func (r *resource) get(id int) (map[string]interface{}, bool) {
	if id < 1 || id > len(r.items) {
		return nil, false
	}
	return r.items[id-1], true
}

func (r *resource) childrenOf(parentID int) []map[string]interface{} {
	out := []map[string]interface{}{}
	for _, item := range r.items {
		if item[r.parentKey] == parentID {
			out = append(out, item)
		}
	}
	return out
}

var placeholderUsers = []struct {
	name, username, email, city string
}{
	{"Leanne Graham", "Bret", "Sincere@april.biz", "Gwenborough"},
	{"Ervin Howell", "Antonette", "Shanna@melissa.tv", "Wisokyburgh"},
	{"Clementine Bauch", "Samantha", "Nathan@yesenia.net", "McKenziehaven"},
	{"Patricia Lebsack", "Karianne", "Julianne.OConner@kory.org", "South Elvis"},
	{"Chelsey Dietrich", "Kamren", "Lucio_Hettinger@annie.ca", "Roscoeview"},
	{"Mrs. Dennis Schulist", "Leopoldo_Corkery", "Karley_Dach@jasper.info", "South Christy"},
	{"Kurtis Weissnat", "Elwyn.Skiles", "Telly.Hoeger@billy.biz", "Howemouth"},
	{"Nicholas Runolfsdottir V", "Maxime_Nienow", "Sherwood@rosamond.me", "Aliyaview"},
	{"Glenna Reichert", "Delphine", "Chaim_McDermott@dana.io", "Bartholomebury"},
	{"Clementina DuBuque", "Moriah.Stanton", "Rey.Padberg@karina.biz", "Lebsackbury"},
}

func newPlaceholderData() map[string]*resource {
	users := &resource{}
	posts := &resource{parent: "users", parentKey: "userId"}
	albums := &resource{parent: "users", parentKey: "userId"}
	todos := &resource{parent: "users", parentKey: "userId"}
	comments := &resource{parent: "posts", parentKey: "postId"}
	photos := &resource{parent: "albums", parentKey: "albumId"}

	for i, u := range placeholderUsers {
		userID := i + 1
		users.items = append(users.items, map[string]interface{}{
			"id":       userID,
			"name":     u.name,
			"username": u.username,
			"email":    u.email,
			"address": map[string]interface{}{
				"street":  fmt.Sprintf("%d Main Street", 100+userID),
				"suite":   fmt.Sprintf("Apt. %d", 500+userID),
				"city":    u.city,
				"zipcode": fmt.Sprintf("%05d", 92998+userID),
			},
			"company": map[string]interface{}{
				"name":        u.username + " Group",
				"catchPhrase": "Multi-layered client-server neural-net",
			},
		})
		for p := 0; p < 10; p++ {
			posts.items = append(posts.items, map[string]interface{}{
				"userId": userID,
				"id":     len(posts.items) + 1,
				"title":  fmt.Sprintf("post %d by %s", p+1, u.username),
				"body":   fmt.Sprintf("body of post %d written by %s", p+1, u.name),
			})
			albums.items = append(albums.items, map[string]interface{}{
				"userId": userID,
				"id":     len(albums.items) + 1,
				"title":  fmt.Sprintf("album %d of %s", p+1, u.username),
			})
		}
		for t := 0; t < 20; t++ {
			todos.items = append(todos.items, map[string]interface{}{
				"userId":    userID,
				"id":        len(todos.items) + 1,
				"title":     fmt.Sprintf("todo %d of %s", t+1, u.username),
				"completed": t%3 == 0,
			})
		}
	}
	for _, post := range posts.items {
		for c := 0; c < 5; c++ {
			id := len(comments.items) + 1
			comments.items = append(comments.items, map[string]interface{}{
				"postId": post["id"],
				"id":     id,
				"name":   fmt.Sprintf("comment %d", id),
				"email":  fmt.Sprintf("commenter%d@example.com", id),
				"body":   fmt.Sprintf("comment %d on post %d", c+1, post["id"]),
			})
		}
	}
	for _, album := range albums.items {
		for p := 0; p < 10; p++ {
			id := len(photos.items) + 1
			photos.items = append(photos.items, map[string]interface{}{
				"albumId":      album["id"],
				"id":           id,
				"title":        fmt.Sprintf("photo %d", id),
				"url":          fmt.Sprintf("https://via.placeholder.com/600/%06x", id),
				"thumbnailUrl": fmt.Sprintf("https://via.placeholder.com/150/%06x", id),
			})
		}
	}
	return map[string]*resource{
		"users":    users,
		"posts":    posts,
		"albums":   albums,
		"todos":    todos,
		"comments": comments,
		"photos":   photos,
	}
}

// PlaceholderRoutes registers a fake of the fake-data API: users, posts, comments, albums, photos and todos
// with list, read, nested list and write endpoints.
func PlaceholderRoutes(r *mux.Router) {
	data := newPlaceholderData()
	notFound := jsonResponse(404, map[string]interface{}{})

	lookup := func(req *http.Request) (*resource, int, bool) {
		vars := mux.Vars(req)
		res, ok := data[vars["resource"]]
		if !ok {
			return nil, 0, false
		}
		id := 0
		if s, ok := vars["id"]; ok {
			id, _ = strconv.Atoi(s)
		}
		return res, id, true
	}
	badBody := func(err error) util.JSONResponse {
		return jsonResponse(400, map[string]interface{}{"error": err.Error()})
	}

	r.Handle("/{resource}", jsonAPI(func(req *http.Request) util.JSONResponse {
		res, _, ok := lookup(req)
		if !ok {
			return notFound
		}
		return jsonResponse(200, res.items)
	})).Methods("GET")
	r.Handle("/{resource}", jsonAPI(func(req *http.Request) util.JSONResponse {
		res, _, ok := lookup(req)
		if !ok {
			return notFound
		}
		body, err := readJSONObject(req)
		if err != nil {
			return badBody(err)
		}
		body["id"] = len(res.items) + 1
		return jsonResponse(201, body)
	})).Methods("POST")
	r.Handle("/{resource}/{id:[0-9]+}", jsonAPI(func(req *http.Request) util.JSONResponse {
		res, id, ok := lookup(req)
		if !ok {
			return notFound
		}
		item, ok := res.get(id)
		if !ok {
			return notFound
		}
		return jsonResponse(200, item)
	})).Methods("GET")
	r.Handle("/{resource}/{id:[0-9]+}", jsonAPI(func(req *http.Request) util.JSONResponse {
		res, id, ok := lookup(req)
		if !ok {
			return notFound
		}
		existing, found := res.get(id)
		if !found {
			return jsonResponse(500, map[string]interface{}{"error": fmt.Sprintf("cannot read properties of undefined (id %d)", id)})
		}
		body, err := readJSONObject(req)
		if err != nil {
			return badBody(err)
		}
		if req.Method == "PATCH" {
			merged := make(map[string]interface{}, len(existing)+len(body))
			for k, v := range existing {
				merged[k] = v
			}
			for k, v := range body {
				merged[k] = v
			}
			body = merged
		}
		body["id"] = id
		return jsonResponse(200, body)
	})).Methods("PUT", "PATCH")
	r.Handle("/{resource}/{id:[0-9]+}", jsonAPI(func(req *http.Request) util.JSONResponse {
		if _, _, ok := lookup(req); !ok {
			return notFound
		}
		return jsonResponse(200, map[string]interface{}{})
	})).Methods("DELETE")
	r.Handle("/{resource}/{id:[0-9]+}/{child}", jsonAPI(func(req *http.Request) util.JSONResponse {
		parent, id, ok := lookup(req)
		if !ok {
			return notFound
		}
		child, ok := data[mux.Vars(req)["child"]]
		if !ok || child.parent == "" || data[child.parent] != parent {
			return notFound
		}
		if req.Method == "GET" {
			return jsonResponse(200, child.childrenOf(id))
		}
		body, err := readJSONObject(req)
		if err != nil {
			return badBody(err)
		}
		// the parent id comes from the path, so it is echoed as a string
		body[child.parentKey] = mux.Vars(req)["id"]
		body["id"] = len(child.items) + 1
		return jsonResponse(201, body)
	})).Methods("GET", "POST")
}
