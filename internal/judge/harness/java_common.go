package harness

import (
	"strings"

	"liva/internal/judge/model"
)

// renderCommon synthesizes the Common helper module for a problem. JSON
// utilities are always emitted; structural helpers are included only when the
// problem's input or output specs need them.
func renderCommon(problem *model.Problem) string {
	var b strings.Builder
	b.WriteString(javaCommonHeader)
	b.WriteString(javaCommonJSON)
	if problem.ContainsKind(model.TypeTree) {
		b.WriteString(javaCommonTree)
	}
	if problem.ContainsKind(model.TypeLinkedList) {
		b.WriteString(javaCommonLinkedList)
	}
	if problem.ContainsKind(model.TypeGraph) {
		b.WriteString(javaCommonGraph)
	}
	return b.String()
}

const javaCommonHeader = `import com.google.gson.*;
import java.util.*;

`

const javaCommonJSON = `final class Common {
    // Serialize nulls and keep key order so outputs round-trip verbatim.
    static final Gson GSON = new GsonBuilder()
            .serializeNulls()
            .disableHtmlEscaping()
            .create();

    private Common() {}

    static JsonElement parse(String raw) {
        return JsonParser.parseString(raw);
    }

    static String stringify(Object value) {
        return GSON.toJson(value);
    }

    static JsonElement toJson(Object value) {
        return GSON.toJsonTree(value);
    }
}
`

const javaCommonTree = `
class TreeNode {
    int val;
    TreeNode left;
    TreeNode right;

    TreeNode() {}
    TreeNode(int val) { this.val = val; }
    TreeNode(int val, TreeNode left, TreeNode right) {
        this.val = val;
        this.left = left;
        this.right = right;
    }
}

final class TreeCodec {
    private TreeCodec() {}

    // Level-order decode with null holes.
    static TreeNode decode(JsonArray arr) {
        if (arr == null || arr.size() == 0) return null;
        if (arr.get(0).isJsonNull()) return null;
        TreeNode root = new TreeNode(arr.get(0).getAsInt());
        Deque<TreeNode> queue = new ArrayDeque<>();
        queue.add(root);
        int i = 1;
        while (!queue.isEmpty() && i < arr.size()) {
            TreeNode node = queue.poll();
            if (i < arr.size()) {
                JsonElement el = arr.get(i++);
                if (!el.isJsonNull()) {
                    node.left = new TreeNode(el.getAsInt());
                    queue.add(node.left);
                }
            }
            if (i < arr.size()) {
                JsonElement el = arr.get(i++);
                if (!el.isJsonNull()) {
                    node.right = new TreeNode(el.getAsInt());
                    queue.add(node.right);
                }
            }
        }
        return root;
    }

    // Level-order encode with trailing nulls trimmed.
    static List<Object> encode(TreeNode root) {
        List<Object> out = new ArrayList<>();
        Deque<TreeNode> queue = new ArrayDeque<>();
        if (root != null) queue.add(root);
        while (!queue.isEmpty()) {
            TreeNode node = queue.poll();
            if (node == null) {
                out.add(null);
                continue;
            }
            out.add(node.val);
            if (node.left != null || node.right != null || hasPending(queue)) {
                queue.add(node.left);
                queue.add(node.right);
            }
        }
        while (!out.isEmpty() && out.get(out.size() - 1) == null) {
            out.remove(out.size() - 1);
        }
        return out;
    }

    private static boolean hasPending(Deque<TreeNode> queue) {
        for (TreeNode n : queue) {
            if (n != null) return true;
        }
        return false;
    }
}
`

const javaCommonLinkedList = `
class ListNode {
    int val;
    ListNode next;

    ListNode() {}
    ListNode(int val) { this.val = val; }
    ListNode(int val, ListNode next) { this.val = val; this.next = next; }
}

final class ListCodec {
    private ListCodec() {}

    static ListNode decode(JsonArray arr) {
        ListNode dummy = new ListNode();
        ListNode tail = dummy;
        if (arr != null) {
            for (JsonElement el : arr) {
                tail.next = new ListNode(el.getAsInt());
                tail = tail.next;
            }
        }
        return dummy.next;
    }

    static List<Integer> encode(ListNode head) {
        List<Integer> out = new ArrayList<>();
        for (ListNode node = head; node != null; node = node.next) {
            out.add(node.val);
        }
        return out;
    }
}
`

const javaCommonGraph = `
class GraphNode {
    int val;
    List<GraphNode> neighbors;

    GraphNode() { this.neighbors = new ArrayList<>(); }
    GraphNode(int val) {
        this.val = val;
        this.neighbors = new ArrayList<>();
    }
}

final class GraphCodec {
    private GraphCodec() {}

    // Decode a 1-indexed adjacency list into a connected graph.
    static GraphNode decode(JsonArray adjacency) {
        if (adjacency == null || adjacency.size() == 0) return null;
        Map<Integer, GraphNode> nodes = new HashMap<>();
        for (int i = 1; i <= adjacency.size(); i++) {
            nodes.put(i, new GraphNode(i));
        }
        for (int i = 1; i <= adjacency.size(); i++) {
            GraphNode node = nodes.get(i);
            for (JsonElement el : adjacency.get(i - 1).getAsJsonArray()) {
                node.neighbors.add(nodes.get(el.getAsInt()));
            }
        }
        return nodes.get(1);
    }

    static List<List<Integer>> encode(GraphNode start) {
        if (start == null) return new ArrayList<>();
        Map<Integer, List<Integer>> adjacency = new TreeMap<>();
        Deque<GraphNode> queue = new ArrayDeque<>();
        Set<Integer> seen = new HashSet<>();
        queue.add(start);
        seen.add(start.val);
        while (!queue.isEmpty()) {
            GraphNode node = queue.poll();
            List<Integer> edges = new ArrayList<>();
            for (GraphNode nb : node.neighbors) {
                edges.add(nb.val);
                if (seen.add(nb.val)) {
                    queue.add(nb);
                }
            }
            adjacency.put(node.val, edges);
        }
        return new ArrayList<>(adjacency.values());
    }
}
`
