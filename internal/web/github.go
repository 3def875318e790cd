package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/matrix-org/util"
)

var fakeGitHubUsers = map[string]map[string]interface{}{
	"octocat":   {"login": "octocat", "id": 583231, "name": "The Octocat", "type": "User", "public_repos": 8},
	"facebook":  {"login": "facebook", "id": 69631, "name": "Meta", "type": "Organization", "public_repos": 153},
	"apple":     {"login": "apple", "id": 10639145, "name": "Apple", "type": "Organization", "public_repos": 300},
	"google":    {"login": "google", "id": 1342004, "name": "Google", "type": "Organization", "public_repos": 2700},
	"microsoft": {"login": "microsoft", "id": 6154722, "name": "Microsoft", "type": "Organization", "public_repos": 6000},
	"torvalds":  {"login": "torvalds", "id": 1024025, "name": "Linus Torvalds", "type": "User", "public_repos": 9},
}

var fakeGitHubRepos = map[string]map[string]interface{}{
	"facebook/react":        {"name": "react", "language": "JavaScript", "stargazers_count": 230000},
	"torvalds/linux":        {"name": "linux", "language": "C", "stargazers_count": 190000},
	"microsoft/vscode":      {"name": "vscode", "language": "TypeScript", "stargazers_count": 170000},
	"atom/atom":             {"name": "atom", "language": "JavaScript", "stargazers_count": 60000},
	"moby/moby":             {"name": "moby", "language": "Go", "stargazers_count": 69000},
	"tensorflow/tensorflow": {"name": "tensorflow", "language": "C++", "stargazers_count": 188000},
}

// renamed repositories answer with a permanent redirect, as GitHub does.
var fakeGitHubRenames = map[string]string{
	"moby/docker": "moby/moby",
}

var fakeGitHubLicenses = []string{
	"agpl-3.0", "apache-2.0", "bsd-2-clause", "bsd-3-clause", "bsl-1.0", "cc0-1.0", "epl-2.0",
	"gpl-2.0", "gpl-3.0", "lgpl-2.1", "mit", "mpl-2.0", "unlicense",
}

// GitHubRoutes registers a fake of the subset of the GitHub REST API the github suite uses. The login
// "ratelimited" always answers as if the primary rate limit was exhausted.
func GitHubRoutes(r *mux.Router) {
	notFound := func() util.JSONResponse {
		return jsonResponse(404, map[string]interface{}{
			"message":           "Not Found",
			"documentation_url": "https://docs.github.com/rest",
			"status":            "404",
		})
	}
	r.Handle("/", jsonAPI(func(req *http.Request) util.JSONResponse {
		return jsonResponse(200, map[string]interface{}{
			"current_user_url": "https://api.github.com/user",
			"emojis_url":       "https://api.github.com/emojis",
			"user_url":         "https://api.github.com/users/{user}",
		})
	})).Methods("GET")
	r.Handle("/users/ratelimited", jsonAPI(func(req *http.Request) util.JSONResponse {
		return util.JSONResponse{
			Code: 403,
			JSON: map[string]interface{}{
				"message":           "API rate limit exceeded for 127.0.0.1.",
				"documentation_url": "https://docs.github.com/rest/overview/resources-in-the-rest-api#rate-limiting",
			},
			Headers: map[string]string{
				"X-RateLimit-Limit":     "60",
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
			},
		}
	})).Methods("GET")
	r.Handle("/users/{login}", jsonAPI(func(req *http.Request) util.JSONResponse {
		u, ok := fakeGitHubUsers[mux.Vars(req)["login"]]
		if !ok {
			return notFound()
		}
		return jsonResponse(200, u)
	})).Methods("GET")
	r.Handle("/users/{login}/repos", jsonAPI(func(req *http.Request) util.JSONResponse {
		login := mux.Vars(req)["login"]
		if _, ok := fakeGitHubUsers[login]; !ok {
			return notFound()
		}
		names := []string{".allstar", ".github", "abpackage", "abseil-cpp", "acme", "adk-python", "agera"}
		repos := make([]map[string]interface{}, 0, len(names))
		for i, n := range names[:perPage(req, len(names))] {
			repos = append(repos, map[string]interface{}{"id": 1000 + i, "name": n, "full_name": login + "/" + n})
		}
		return jsonResponse(200, repos)
	})).Methods("GET")
	r.Handle("/users/{login}/followers", jsonAPI(func(req *http.Request) util.JSONResponse {
		if _, ok := fakeGitHubUsers[mux.Vars(req)["login"]]; !ok {
			return notFound()
		}
		return jsonResponse(200, []map[string]interface{}{
			{"login": "octocat", "id": 583231, "type": "User"},
			{"login": "torvalds", "id": 1024025, "type": "User"},
		})
	})).Methods("GET")
	r.Handle("/repositories/1296269", jsonAPI(func(req *http.Request) util.JSONResponse {
		return jsonResponse(200, map[string]interface{}{
			"id": 1296269, "name": "Hello-World", "full_name": "octocat/Hello-World",
			"owner": map[string]interface{}{"login": "octocat", "type": "User"},
		})
	})).Methods("GET")
	r.Handle("/repos/{owner}/{repo}", jsonAPI(func(req *http.Request) util.JSONResponse {
		v := mux.Vars(req)
		full := v["owner"] + "/" + v["repo"]
		if to, ok := fakeGitHubRenames[full]; ok {
			return util.JSONResponse{
				Code:    http.StatusMovedPermanently,
				JSON:    map[string]interface{}{"message": "Moved Permanently", "url": "../" + to},
				Headers: map[string]string{"Location": "../" + to},
			}
		}
		repo, ok := fakeGitHubRepos[full]
		if !ok {
			return notFound()
		}
		out := map[string]interface{}{"full_name": full}
		for k, val := range repo {
			out[k] = val
		}
		ownerType := "Organization"
		if u, ok := fakeGitHubUsers[v["owner"]]; ok {
			ownerType = u["type"].(string)
		}
		out["owner"] = map[string]interface{}{"login": v["owner"], "type": ownerType}
		return jsonResponse(200, out)
	})).Methods("GET")
	r.Handle("/repos/{owner}/{repo}/commits", jsonAPI(func(req *http.Request) util.JSONResponse {
		v := mux.Vars(req)
		if _, ok := fakeGitHubRepos[v["owner"]+"/"+v["repo"]]; !ok {
			return notFound()
		}
		return jsonResponse(200, []map[string]interface{}{
			{"sha": "9f3c1e", "commit": map[string]interface{}{"message": "Update build rules"}},
			{"sha": "77ab02", "commit": map[string]interface{}{"message": "Fix flaky test"}},
		})
	})).Methods("GET")
	r.Handle("/repos/{owner}/{repo}/contributors", jsonAPI(func(req *http.Request) util.JSONResponse {
		contributors := make([]map[string]interface{}, 0, 3)
		for i, login := range []string{"k8s-ci-robot", "thockin", "liggitt"} {
			contributors = append(contributors, map[string]interface{}{"login": login, "contributions": 9000 - i*1000})
		}
		return jsonResponse(200, contributors[:perPage(req, len(contributors))])
	})).Methods("GET")
	r.Handle("/emojis", jsonAPI(func(req *http.Request) util.JSONResponse {
		return jsonResponse(200, map[string]string{
			"+1":       "https://github.githubassets.com/images/icons/emoji/unicode/1f44d.png?v8",
			"-1":       "https://github.githubassets.com/images/icons/emoji/unicode/1f44e.png?v8",
			"octocat":  "https://github.githubassets.com/images/icons/emoji/octocat.png?v8",
			"100":      "https://github.githubassets.com/images/icons/emoji/unicode/1f4af.png?v8",
			"gopher":   "https://github.githubassets.com/images/icons/emoji/gopher.png?v8",
			"sparkles": "https://github.githubassets.com/images/icons/emoji/unicode/2728.png?v8",
		})
	})).Methods("GET")
	r.Handle("/licenses", jsonAPI(func(req *http.Request) util.JSONResponse {
		out := make([]map[string]interface{}, 0, len(fakeGitHubLicenses))
		for _, key := range fakeGitHubLicenses {
			out = append(out, map[string]interface{}{"key": key, "spdx_id": key})
		}
		return jsonResponse(200, out)
	})).Methods("GET")
	r.Handle("/licenses/{key}", jsonAPI(func(req *http.Request) util.JSONResponse {
		key := mux.Vars(req)["key"]
		if key != "mit" {
			return notFound()
		}
		return jsonResponse(200, map[string]interface{}{"key": "mit", "name": "MIT License", "spdx_id": "MIT"})
	})).Methods("GET")
	r.Handle("/search/repositories", jsonAPI(func(req *http.Request) util.JSONResponse {
		q := req.URL.Query().Get("q")
		if q == "" {
			return jsonResponse(422, map[string]interface{}{"message": "Validation Failed"})
		}
		key := "mit"
		if q == "license:apache-2.0" {
			key = "apache-2.0"
		}
		return jsonResponse(200, map[string]interface{}{
			"total_count":        1,
			"incomplete_results": false,
			"items": []map[string]interface{}{
				{"name": fmt.Sprintf("%s-project", key), "license": map[string]interface{}{"key": key}},
			},
		})
	})).Methods("GET")
}

// perPage returns the per_page query parameter clamped to [1, max]. Missing or invalid values select max.
func perPage(req *http.Request, max int) int {
	n, err := strconv.Atoi(req.URL.Query().Get("per_page"))
	if err != nil || n < 1 || n > max {
		return max
	}
	return n
}
