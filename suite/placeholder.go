package suite

import (
	"github.com/tidwall/gjson"

	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/match"
	"github.com/apicheck/apicheck/scenario"
)

// emailPattern accepts addresses with exactly one '@', a '.' in the domain, no commas, and no leading or trailing
// '@' or '.'.
const emailPattern = `^[^@,.][^@,]*@[^@,]*\.[^@,]*[^@,.]$`

// Placeholder returns the CRUD checks against the fake-data API.
func Placeholder() []scenario.Scenario {
	ph := func(name string, step scenario.Step) scenario.Scenario {
		return single(name, config.Placeholder, step)
	}
	send := func(method, url string, body interface{}, expect ...scenario.Expectation) scenario.Step {
		return scenario.Step{Method: method, URL: url, Body: body, Expect: expect}
	}
	newPost := map[string]interface{}{
		"title":  "my first post",
		"body":   "the content of the post",
		"userId": 0,
	}
	updatedPost := map[string]interface{}{
		"userId": 0,
		"id":     1,
		"title":  "the post was updated!",
		"body":   "this is the changed content of the post",
	}
	return []scenario.Scenario{
		ph("create post", send("POST", "/posts", newPost,
			scenario.Status(201),
			scenario.Equal("title", newPost["title"]),
			scenario.Equal("body", newPost["body"]),
			scenario.Equal("userId", 0),
			scenario.Present("id"),
		)),
		ph("replace post 1", send("PUT", "/posts/1", updatedPost,
			scenario.Status(200),
			scenario.Equal("title", updatedPost["title"]),
			scenario.Equal("body", updatedPost["body"]),
			scenario.Equal("userId", 0),
			scenario.Equal("id", 1),
		)),
		ph("delete post 1", send("DELETE", "/posts/1", nil,
			scenario.Status(200),
			scenario.Equal("", map[string]interface{}{}),
		)),
		ph("user list is not empty", get("/users",
			scenario.Status(200),
			scenario.NonEmpty(""),
		)),
		ph("user 5 is Chelsey Dietrich", get("/users/5",
			scenario.Status(200),
			scenario.Equal("name", "Chelsey Dietrich"),
		)),
		ph("comment on post 1", send("POST", "/posts/1/comments", map[string]interface{}{
			"id":    99,
			"name":  "name of the new comment",
			"email": "email@new.example.com",
			"body":  "content of the new comment",
		},
			scenario.Status(201),
		)),
		ph("user 3 has 10 albums", get("/users/3/albums",
			scenario.Status(200),
			scenario.Count("", 10),
		)),
		ph("album 2 has photos", get("/albums/2/photos",
			scenario.Status(200),
			scenario.NonEmpty(""),
			scenario.TypeOf("0.title", match.KindString),
		)),
		ph("create todo for user 1", send("POST", "/users/1/todos", map[string]interface{}{
			"userId":    1,
			"title":     "Learn Go",
			"completed": false,
		},
			scenario.Status(201),
			scenario.LooseEqual("userId", 1),
			scenario.LooseEqual("title", "Learn Go"),
			scenario.Equal("completed", false),
		)),
		ph("complete todo 5", send("PATCH", "/todos/5", map[string]interface{}{"completed": true},
			scenario.Status(200),
			scenario.Equal("completed", true),
			scenario.Present("userId"),
			scenario.Present("id"),
			scenario.Present("title"),
		)),
		ph("user 1 todos have a completion flag", get("/users/1/todos",
			scenario.Status(200),
			scenario.NonEmpty(""),
			scenario.Each("", scenario.TypeOf("completed", match.KindBool)),
		)),
		ph("comment 10 has every field", get("/comments/10",
			scenario.Status(200),
			scenario.Present("postId"),
			scenario.Present("id"),
			scenario.Present("name"),
			scenario.Present("email"),
			scenario.Present("body"),
		)),
		ph("delete comment 3", send("DELETE", "/comments/3", nil,
			scenario.Status(200),
		)),
		ph("create empty todo", send("POST", "/todos", map[string]interface{}{},
			scenario.Status(201),
			scenario.Missing("title"),
		)),
		ph("user 7 has posts", get("/users/7/posts",
			scenario.Status(200),
			scenario.NonEmpty(""),
		)),
		ph("replace user 2 email", send("PUT", "/users/2", map[string]interface{}{"email": "new.email@example.com"},
			scenario.Status(200),
			scenario.Equal("email", "new.email@example.com"),
		)),
		ph("delete album 4", send("DELETE", "/albums/4", nil,
			scenario.Status(200),
			scenario.Equal("", map[string]interface{}{}),
		)),
		{
			Name:         "create post, comment on it, then delete it",
			Collaborator: config.Placeholder,
			Steps: []scenario.Step{
				{
					Name:   "create post",
					Method: "POST",
					URL:    "/posts",
					Body:   map[string]interface{}{"userId": 11, "title": "title of the post", "body": "body of the post"},
					Store:  map[string]string{"post_id": "id"},
					Expect: []scenario.Expectation{
						scenario.Status(201),
						scenario.Equal("userId", 11),
						scenario.TypeOf("id", match.KindInteger),
					},
				},
				{
					Name:   "comment on the post",
					Method: "POST",
					URL:    "/comments",
					Body: map[string]interface{}{
						"name":  "test comment",
						"email": "test@example.com",
						"body":  "content of the comment",
					},
					BodyVars: map[string]string{"postId": "post_id"},
					Expect: []scenario.Expectation{
						scenario.Status(201),
						scenario.Equal("postId", "$post_id"),
					},
				},
				{
					Name:   "delete the post",
					Method: "DELETE",
					URL:    "/posts/$post_id",
					Expect: []scenario.Expectation{scenario.Status(200)},
				},
			},
		},
		ph("post 2 comments all belong to post 2", get("/posts/2/comments",
			scenario.Status(200),
			scenario.NonEmpty(""),
			scenario.Each("", scenario.Equal("postId", 2)),
		)),
		ph("user 5 has todos", get("/users/5/todos",
			scenario.Status(200),
			scenario.NonEmpty(""),
		)),
		ph("user 9 has 10 albums", get("/users/9/albums",
			scenario.Status(200),
			scenario.Count("", 10),
		)),
		ph("user 1 completed todos are completed", get("/users/1/todos",
			scenario.Status(200),
			scenario.Predicate("", "every todo marked completed is true", func(todos gjson.Result) error {
				return match.JSONArrayEach("", func(todo gjson.Result) error {
					if todo.Get("completed").Type == gjson.True {
						return match.JSONKeyEqual("completed", true)(todo)
					}
					return nil
				})(todos)
			}),
		)),
		ph("user 1 field types", get("/users/1",
			scenario.Status(200),
			scenario.TypeOf("id", match.KindInteger),
			scenario.TypeOf("name", match.KindString),
			scenario.TypeOf("address", match.KindObject),
			scenario.TypeOf("company", match.KindObject),
		)),
		ph("user 1 address fields", get("/users/1",
			scenario.Status(200),
			scenario.Present("address.street"),
			scenario.Present("address.city"),
			scenario.Present("address.zipcode"),
		)),
		ph("post 10 fields", get("/posts/10",
			scenario.Status(200),
			scenario.TypeOf("userId", match.KindInteger),
			scenario.TypeOf("id", match.KindInteger),
			scenario.TypeOf("title", match.KindString),
			scenario.NonEmpty("title"),
			scenario.TypeOf("body", match.KindString),
			scenario.NonEmpty("body"),
		)),
		ph("album 1 photos have every field", get("/albums/1/photos",
			scenario.Status(200),
			scenario.NonEmpty(""),
			scenario.Each("",
				scenario.Present("albumId"),
				scenario.Present("id"),
				scenario.Present("title"),
				scenario.Present("url"),
				scenario.Present("thumbnailUrl"),
			),
		)),
		ph("user 3 email is well formed", get("/users/3",
			scenario.Status(200),
			scenario.Matches("email", emailPattern),
		)),
		ph("post 5 has comments", get("/posts/5/comments",
			scenario.Status(200),
			scenario.NonEmpty(""),
			scenario.TypeOf("0.postId", match.KindInteger),
			scenario.TypeOf("0.id", match.KindInteger),
			scenario.TypeOf("0.name", match.KindString),
			scenario.TypeOf("0.email", match.KindString),
			scenario.TypeOf("0.body", match.KindString),
		)),
		ph("todo 199 completion is a bool", get("/todos/199",
			scenario.Status(200),
			scenario.TypeOf("completed", match.KindBool),
		)),
	}
}
